package models

import "time"

// Recipe - Bir ürünü belirli porsiyonda üreten formülasyon.
// TotalCost/UnitCost son hesaplamanın önbelleğidir, kaynak değil;
// güncel maliyet her zaman malzemelerden yeniden hesaplanabilir.
type Recipe struct {
	ID        uint    `gorm:"primaryKey"`
	Name      string  `gorm:"size:100;not null;index"`
	Portion   float64 `gorm:"not null;default:1"`
	ProductID uint    `gorm:"index;not null"`
	Product   Product `gorm:"foreignKey:ProductID"`
	TotalCost float64 `gorm:"not null;default:0"` // Önbellek: son hesaplanan toplam maliyet
	UnitCost  float64 `gorm:"not null;default:0"` // Önbellek: toplam / porsiyon
	IsActive  bool    `gorm:"not null;index"`

	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`

	DeletedAt    *time.Time `gorm:"index"`
	DeletedBy    string     `gorm:"size:100"`
	DeleteReason string     `gorm:"size:255"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecipeIngredient - Reçete satırı. Reçete güncellenirken satırlar
// tek tek düzeltilmez: hepsi silinip yeniden oluşturulur.
type RecipeIngredient struct {
	ID            uint     `gorm:"primaryKey"`
	RecipeID      uint     `gorm:"index;not null"`
	MaterialID    uint     `gorm:"index;not null"`
	Material      Material `gorm:"foreignKey:MaterialID"`
	Quantity      float64  `gorm:"not null"`
	Unit          string   `gorm:"size:20;not null"`
	LastUnitPrice float64  `gorm:"not null;default:0"` // Son bilinen birim fiyat (son fiyat)
	LineCost      float64  `gorm:"not null;default:0"` // LastUnitPrice * Quantity
	SortOrder     int      `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
