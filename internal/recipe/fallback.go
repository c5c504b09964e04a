package recipe

import (
	"errors"
	"time"

	"mutfak-backend/internal/models"
	"mutfak-backend/internal/pricing"

	"gorm.io/gorm"
)

// PriceFallback - Malzemenin kendi fiyatı yokken birim fiyat bulma stratejisi.
// Fiyat bulunamazsa (0, false) döner; hata sadece veritabanı sorunlarında döner.
type PriceFallback interface {
	UnitPrice(db *gorm.DB, material *models.Material, asOf time.Time) (float64, bool, error)
}

// ProductNameFallback - Malzeme ile aynı isimli aktif ürünün güncel satış
// fiyatına bakar. Malzeme-ürün arasında kimlik bağı yok, isim eşleşmesi
// veri kalitesine bağlı bir geçici çözümdür; garanti edilen bir eşleşme değil.
type ProductNameFallback struct{}

func (ProductNameFallback) UnitPrice(db *gorm.DB, material *models.Material, asOf time.Time) (float64, bool, error) {
	var product models.Product
	err := db.
		Where("LOWER(name) = LOWER(?) AND is_active = ? AND deleted_at IS NULL", material.Name, true).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}

	rec, err := pricing.ResolvePrice(db, product.ID, models.PriceTypeSale, asOf)
	if err != nil {
		return 0, false, err
	}
	if rec == nil {
		return 0, false, nil
	}
	return rec.UnitPrice, true, nil
}

// resolveUnitPrice - İki adımlı fiyat çözümü: (1) malzemenin kayıtlı birim
// fiyatı sıfır değilse o kullanılır; (2) yoksa fallback stratejisi denenir;
// (3) o da bulamazsa 0 kabul edilir, asla hata fırlatılmaz.
func resolveUnitPrice(db *gorm.DB, material *models.Material, fallback PriceFallback, asOf time.Time) float64 {
	if material.UnitPrice > 0 {
		return material.UnitPrice
	}
	if fallback != nil {
		if price, ok, err := fallback.UnitPrice(db, material, asOf); err == nil && ok {
			return price
		}
	}
	return 0
}
