package trash

import (
	"errors"
	"strings"
	"time"

	"mutfak-backend/internal/models"

	"gorm.io/gorm"
)

// EntityType - Çöp kutusuna taşınabilen kayıt türleri
type EntityType string

const (
	EntityProduct     EntityType = "product"
	EntityRecipe      EntityType = "recipe"
	EntityPriceRecord EntityType = "price_record"
)

var (
	// ErrNotDeleted - Restore edilmek istenen kayıt silinmiş durumda değil
	ErrNotDeleted = errors.New("kayıt silinmiş durumda değil")
	// ErrUnknownEntity - Desteklenmeyen entity tipi
	ErrUnknownEntity = errors.New("bilinmeyen entity tipi")
)

func modelFor(entity EntityType) (interface{}, error) {
	switch entity {
	case EntityProduct:
		return &models.Product{}, nil
	case EntityRecipe:
		return &models.Recipe{}, nil
	case EntityPriceRecord:
		return &models.PriceRecord{}, nil
	default:
		return nil, ErrUnknownEntity
	}
}

// SoftDelete - Kaydı silmeden pasife çeker ve silinme izlerini yazar.
// Tek UPDATE olduğu için atomiktir. Zaten silinmiş kayıtta no-op.
func SoftDelete(db *gorm.DB, entity EntityType, id uint, actor, reason string) error {
	model, err := modelFor(entity)
	if err != nil {
		return err
	}

	now := time.Now()
	res := db.Model(model).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"is_active":     false,
			"deleted_at":    now,
			"deleted_by":    actor,
			"delete_reason": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		db.Model(model).Where("id = ?", id).Count(&count)
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		// Zaten silinmiş; tekrar silmek hata değil
	}
	return nil
}

// Restore - Silinmiş kaydı geri getirir: silinme izleri temizlenir, kayıt
// tekrar aktif olur. Silinmemiş kayıtta ErrNotDeleted döner.
func Restore(db *gorm.DB, entity EntityType, id uint) error {
	model, err := modelFor(entity)
	if err != nil {
		return err
	}

	res := db.Model(model).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Updates(map[string]interface{}{
			"is_active":     true,
			"deleted_at":    nil,
			"deleted_by":    "",
			"delete_reason": "",
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		db.Model(model).Where("id = ?", id).Count(&count)
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrNotDeleted
	}
	return nil
}

// TrashItem - Çöp kutusu listesinde tek satır
type TrashItem struct {
	ID           uint       `json:"id"`
	Name         string     `json:"name"`
	DeletedAt    *time.Time `json:"deleted_at"`
	DeletedBy    string     `json:"deleted_by"`
	DeleteReason string     `json:"delete_reason"`
}

// ListTrash - Silinmiş kayıtları en son silinen başta olacak şekilde,
// isim aramalı ve sayfalı listeler.
func ListTrash(db *gorm.DB, entity EntityType, search string, page, pageSize int) ([]TrashItem, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var dbq *gorm.DB
	var table string
	switch entity {
	case EntityProduct:
		table = "products"
		dbq = db.Model(&models.Product{}).
			Select("products.id, products.name, products.deleted_at, products.deleted_by, products.delete_reason").
			Where("products.deleted_at IS NOT NULL")
		if s := strings.TrimSpace(search); s != "" {
			dbq = dbq.Where("LOWER(products.name) LIKE LOWER(?)", "%"+s+"%")
		}
	case EntityRecipe:
		table = "recipes"
		dbq = db.Model(&models.Recipe{}).
			Select("recipes.id, recipes.name, recipes.deleted_at, recipes.deleted_by, recipes.delete_reason").
			Where("recipes.deleted_at IS NOT NULL")
		if s := strings.TrimSpace(search); s != "" {
			dbq = dbq.Where("LOWER(recipes.name) LIKE LOWER(?)", "%"+s+"%")
		}
	case EntityPriceRecord:
		table = "price_records"
		// Fiyat kaydının kendi adı yok; listede ürün adıyla gösterilir
		dbq = db.Model(&models.PriceRecord{}).
			Select("price_records.id, products.name AS name, price_records.deleted_at, price_records.deleted_by, price_records.delete_reason").
			Joins("JOIN products ON products.id = price_records.product_id").
			Where("price_records.deleted_at IS NOT NULL")
		if s := strings.TrimSpace(search); s != "" {
			dbq = dbq.Where("LOWER(products.name) LIKE LOWER(?)", "%"+s+"%")
		}
	default:
		return nil, 0, ErrUnknownEntity
	}

	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []TrashItem
	err := dbq.Order(table + ".deleted_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}
