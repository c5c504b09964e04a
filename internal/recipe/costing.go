package recipe

import (
	"errors"
	"time"

	"mutfak-backend/internal/models"
	"mutfak-backend/internal/pricing"

	"gorm.io/gorm"
)

type CostOptions struct {
	IncludeBreakdown bool
	IncludeMargin    bool // Yetki kontrolü çağıranın sorumluluğunda (handler katmanı)
	AsOf             time.Time
	Fallback         PriceFallback // nil ise ProductNameFallback kullanılır
}

type CostLine struct {
	MaterialID     uint    `json:"material_id"`
	MaterialName   string  `json:"material_name"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	UnitPrice      float64 `json:"unit_price"`
	LineCost       float64 `json:"line_cost"`
	CostPercentage float64 `json:"cost_percentage"` // lineCost / totalCost * 100
	CostVariance   float64 `json:"cost_variance"`   // lineCost - kayıtlı satır maliyeti
}

type MarginReport struct {
	SellingPrice     float64 `json:"selling_price"`
	GrossProfit      float64 `json:"gross_profit"`
	MarginPercentage float64 `json:"margin_percentage"` // kâr / satış fiyatı
	MarkupPercentage float64 `json:"markup_percentage"` // kâr / birim maliyet
}

type CostReport struct {
	RecipeID     uint          `json:"recipe_id"`
	RecipeName   string        `json:"recipe_name"`
	Portion      float64       `json:"portion"`
	TotalCost    float64       `json:"total_cost"`
	UnitCost     float64       `json:"unit_cost"`
	StoredTotal  float64       `json:"stored_total_cost"`
	CostVariance float64       `json:"cost_variance"` // güncel toplam - kayıtlı toplam
	Lines        []CostLine    `json:"lines,omitempty"`
	Margin       *MarginReport `json:"margin,omitempty"`
}

// CurrentCost - Reçetenin güncel maliyetini malzemelerden hesaplar.
// Reçete hiç yoksa sıfır değerli bir rapor döner, hata değil: eksik fiyat
// verisi okuma akışını asla bloklamaz.
func CurrentCost(db *gorm.DB, recipeID uint, opts CostOptions) (*CostReport, error) {
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	fallback := opts.Fallback
	if fallback == nil {
		fallback = ProductNameFallback{}
	}

	var rec models.Recipe
	err := db.Preload("Ingredients", func(q *gorm.DB) *gorm.DB {
		return q.Order("sort_order asc, id asc")
	}).Preload("Ingredients.Material").First(&rec, "id = ?", recipeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &CostReport{RecipeID: recipeID, Portion: 1}, nil
		}
		return nil, err
	}

	report := &CostReport{
		RecipeID:    rec.ID,
		RecipeName:  rec.Name,
		Portion:     rec.Portion,
		StoredTotal: rec.TotalCost,
	}

	lines := make([]CostLine, 0, len(rec.Ingredients))
	for i := range rec.Ingredients {
		ing := &rec.Ingredients[i]
		unitPrice := resolveUnitPrice(db, &ing.Material, fallback, asOf)
		lineCost := unitPrice * ing.Quantity
		report.TotalCost += lineCost

		lines = append(lines, CostLine{
			MaterialID:   ing.MaterialID,
			MaterialName: ing.Material.Name,
			Quantity:     ing.Quantity,
			Unit:         ing.Unit,
			UnitPrice:    unitPrice,
			LineCost:     lineCost,
			CostVariance: lineCost - ing.LineCost,
		})
	}

	// Porsiyon 0 ise 1 kabul edilir, sıfıra bölme olmaz
	portion := rec.Portion
	if portion <= 0 {
		portion = 1
	}
	report.UnitCost = report.TotalCost / portion
	report.CostVariance = report.TotalCost - rec.TotalCost

	if opts.IncludeBreakdown {
		for i := range lines {
			if report.TotalCost > 0 {
				lines[i].CostPercentage = lines[i].LineCost / report.TotalCost * 100
			}
		}
		report.Lines = lines
	}

	if opts.IncludeMargin {
		margin := &MarginReport{}
		sale, err := pricing.ResolvePrice(db, rec.ProductID, models.PriceTypeSale, asOf)
		if err != nil {
			return nil, err
		}
		if sale != nil {
			margin.SellingPrice = sale.UnitPrice
			margin.GrossProfit = sale.UnitPrice - report.UnitCost
			if sale.UnitPrice > 0 {
				margin.MarginPercentage = margin.GrossProfit / sale.UnitPrice * 100
			}
			if report.UnitCost > 0 {
				margin.MarkupPercentage = margin.GrossProfit / report.UnitCost * 100
			}
		}
		report.Margin = margin
	}

	return report, nil
}
