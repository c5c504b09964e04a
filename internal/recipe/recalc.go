package recipe

import (
	"database/sql"
	"errors"
	"time"

	"mutfak-backend/internal/models"

	"gorm.io/gorm"
)

// PersistenceError - Hesaplanan maliyetler kalıcılaştırılırken transaction
// başarısız oldu. Transaction tamamı geri alındığı için çağıran yan etkisiz
// şekilde tekrar deneyebilir.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "maliyet kalıcılaştırılamadı: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type RecalcItem struct {
	MaterialID uint    `json:"material_id"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
}

type RecalcInput struct {
	RecipeID uint         // 0 ise Items üzerinden ad-hoc hesap yapılır
	Items    []RecalcItem // RecipeID verilmişse yok sayılır
	Portion  float64      // 0 ise reçetenin porsiyonu (o da 0 ise 1) kullanılır
	Persist  bool         // Yetki kontrolü çağıranın sorumluluğunda
	AsOf     time.Time
	Fallback PriceFallback
}

type RecalcLine struct {
	IngredientID uint    `json:"-"` // Sadece persist için; ad-hoc satırlarda 0
	MaterialID   uint    `json:"material_id"`
	MaterialName string  `json:"material_name"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	UnitPrice    float64 `json:"unit_price"`
	LineCost     float64 `json:"line_cost"`
}

type RecalcResult struct {
	RecipeID         uint         `json:"recipe_id,omitempty"`
	TotalCost        float64      `json:"total_cost"`
	UnitCost         float64      `json:"unit_cost"`
	Portion          float64      `json:"portion"`
	Lines            []RecalcLine `json:"lines"`
	SkippedMaterials []uint       `json:"skipped_materials,omitempty"` // Bulunamayan/pasif malzemeler
	Persisted        bool         `json:"persisted"`
}

// Recalculate - Reçete ya da ad-hoc malzeme listesi için maliyet hesaplar.
// Bulunamayan veya pasif malzemeler hesabı durdurmaz, satır atlanır:
// tek bozuk malzeme yüzünden reçete maliyetsiz kalmasın.
func Recalculate(db *gorm.DB, in RecalcInput) (*RecalcResult, error) {
	asOf := in.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	fallback := in.Fallback
	if fallback == nil {
		fallback = ProductNameFallback{}
	}

	result := &RecalcResult{RecipeID: in.RecipeID}

	var rec *models.Recipe
	type pending struct {
		ingredientID uint
		materialID   uint
		quantity     float64
		unit         string
	}
	var items []pending

	if in.RecipeID != 0 {
		var loaded models.Recipe
		err := db.Preload("Ingredients", func(q *gorm.DB) *gorm.DB {
			return q.Order("sort_order asc, id asc")
		}).First(&loaded, "id = ?", in.RecipeID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.Portion = 1
				result.Lines = []RecalcLine{}
				return result, nil
			}
			return nil, err
		}
		rec = &loaded
		for _, ing := range loaded.Ingredients {
			items = append(items, pending{
				ingredientID: ing.ID,
				materialID:   ing.MaterialID,
				quantity:     ing.Quantity,
				unit:         ing.Unit,
			})
		}
	} else {
		for _, it := range in.Items {
			items = append(items, pending{materialID: it.MaterialID, quantity: it.Quantity, unit: it.Unit})
		}
	}

	lines := make([]RecalcLine, 0, len(items))
	for _, it := range items {
		var material models.Material
		if err := db.First(&material, "id = ?", it.materialID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.SkippedMaterials = append(result.SkippedMaterials, it.materialID)
				continue
			}
			return nil, err
		}
		if !material.IsActive {
			result.SkippedMaterials = append(result.SkippedMaterials, it.materialID)
			continue
		}

		unitPrice := resolveUnitPrice(db, &material, fallback, asOf)
		lineCost := unitPrice * it.quantity
		result.TotalCost += lineCost

		unit := it.unit
		if unit == "" {
			unit = material.Unit
		}
		lines = append(lines, RecalcLine{
			IngredientID: it.ingredientID,
			MaterialID:   material.ID,
			MaterialName: material.Name,
			Quantity:     it.quantity,
			Unit:         unit,
			UnitPrice:    unitPrice,
			LineCost:     lineCost,
		})
	}
	result.Lines = lines

	portion := in.Portion
	if portion <= 0 && rec != nil {
		portion = rec.Portion
	}
	if portion <= 0 {
		portion = 1
	}
	result.Portion = portion
	result.UnitCost = result.TotalCost / portion

	if in.Persist && rec != nil {
		// Reçete maliyeti ile satır fiyatları ya birlikte güncellenir ya hiç:
		// yarım kalmış persist dışarıdan asla gözlemlenemez
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Recipe{}).
				Where("id = ?", rec.ID).
				Updates(map[string]interface{}{
					"total_cost": result.TotalCost,
					"unit_cost":  result.UnitCost,
				}).Error; err != nil {
				return err
			}
			for _, line := range result.Lines {
				if line.IngredientID == 0 {
					continue
				}
				if err := tx.Model(&models.RecipeIngredient{}).
					Where("id = ?", line.IngredientID).
					Updates(map[string]interface{}{
						"last_unit_price": line.UnitPrice,
						"line_cost":       line.LineCost,
					}).Error; err != nil {
					return err
				}
			}
			return nil
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return nil, &PersistenceError{Err: err}
		}
		result.Persisted = true
	}

	return result, nil
}

// RecalculateAll - Aday reçetelerin maliyetlerini topluca yeniden hesaplar ve
// kalıcılaştırır. Tek bir reçetenin hatası toplu işi durdurmaz: o reçete
// atlanır, kalanlarla devam edilir ve sadece gerçekten güncellenen sayısı döner.
func RecalculateAll(db *gorm.DB, recipeIDs []uint, onlyActive bool) (int, error) {
	dbq := db.Model(&models.Recipe{}).Where("deleted_at IS NULL")
	if onlyActive {
		dbq = dbq.Where("is_active = ?", true)
	}
	if len(recipeIDs) > 0 {
		dbq = dbq.Where("id IN ?", recipeIDs)
	}

	var ids []uint
	if err := dbq.Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	updated := 0
	for _, id := range ids {
		res, err := Recalculate(db, RecalcInput{RecipeID: id, Persist: true})
		if err != nil {
			continue // Tek reçetenin hatası toplu işi bozmasın
		}
		if res.Persisted {
			updated++
		}
	}

	return updated, nil
}
