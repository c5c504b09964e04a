package models

import "time"

// PaymentStatus - Siparişin ödeme durumu. Ödeme eklendikçe/silindikçe
// kalan ödemelerin toplamından sıfırdan yeniden hesaplanır, artırımlı tutulmaz.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending" // Hiç ödeme yok
	PaymentStatusPartial PaymentStatus = "partial" // Kısmi ödendi
	PaymentStatusPaid    PaymentStatus = "paid"    // Tamamı ödendi
)

// Order - Müşteri siparişi
type Order struct {
	ID            uint          `gorm:"primaryKey"`
	OrderNumber   string        `gorm:"size:30;uniqueIndex;not null"`
	CustomerID    uint          `gorm:"index;not null"`
	Customer      Customer      `gorm:"foreignKey:CustomerID"`
	TotalAmount   float64       `gorm:"not null"`
	TotalCost     float64       `gorm:"not null;default:0"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index"`

	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments []Payment   `gorm:"foreignKey:OrderID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem - Sipariş satırı. Birim fiyat ve maliyet sipariş anında
// yakalanır; fiyatlar sonradan değişse de geriye dönük güncellenmez.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey"`
	OrderID   uint    `gorm:"index;not null"`
	ProductID uint    `gorm:"index;not null"`
	Product   Product `gorm:"foreignKey:ProductID"`
	Quantity  float64 `gorm:"not null"`
	UnitPrice float64 `gorm:"not null"` // Sipariş anındaki birim fiyat
	LineTotal float64 `gorm:"not null"`
	LineCost  float64 `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
