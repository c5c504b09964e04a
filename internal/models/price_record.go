package models

import "time"

// PriceType - Fiyat kaydının türü
type PriceType string

const (
	PriceTypeSale     PriceType = "sale"     // Satış fiyatı
	PriceTypePurchase PriceType = "purchase" // Alış fiyatı
	PriceTypeTransfer PriceType = "transfer" // Şubeler arası transfer fiyatı
	PriceTypeSpecial  PriceType = "special"  // Özel anlaşma fiyatı
)

// ValidPriceType - Enum değerlerinden biri mi?
func ValidPriceType(t string) bool {
	switch PriceType(t) {
	case PriceTypeSale, PriceTypePurchase, PriceTypeTransfer, PriceTypeSpecial:
		return true
	}
	return false
}

// PriceRecord - Bir ürünün belirli tarih aralığında geçerli birim fiyatı.
// Aynı (ürün, tür) için aynı anda en fazla bir aktif kayıt geçerli olabilir;
// bu kural uygulama katmanında, kayıt oluşturulurken zorlanır.
type PriceRecord struct {
	ID        uint      `gorm:"primaryKey"`
	ProductID uint      `gorm:"index:idx_price_product_type;not null"`
	Product   Product   `gorm:"foreignKey:ProductID"`
	PriceType PriceType `gorm:"type:varchar(20);index:idx_price_product_type;not null"`
	UnitPrice float64   `gorm:"not null"`
	Unit      string    `gorm:"size:20;not null"`
	StartDate time.Time `gorm:"index;not null"`
	EndDate   *time.Time `gorm:"index"` // nil = açık uçlu, süresiz geçerli
	IsActive  bool       `gorm:"not null;index"`

	DeletedAt    *time.Time `gorm:"index"`
	DeletedBy    string     `gorm:"size:100"`
	DeleteReason string     `gorm:"size:255"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
