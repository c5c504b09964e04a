package models

import "time"

// Payment - Siparişe yapılan ödeme. Bir siparişin ödemeleri toplamı
// sipariş tutarını asla aşamaz; bu kural ödeme eklenirken aynı
// transaction içinde zorlanır.
type Payment struct {
	ID          uint      `gorm:"primaryKey"`
	OrderID     uint      `gorm:"index;not null"`
	Order       Order     `gorm:"foreignKey:OrderID"`
	CustomerID  uint      `gorm:"index;not null"`
	Customer    Customer  `gorm:"foreignKey:CustomerID"`
	Amount      float64   `gorm:"not null"`
	Method      string    `gorm:"size:30;not null"` // nakit, kart, havale vs.
	PaymentDate time.Time `gorm:"index;not null"`
	Description string    `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MovementType - Cari hareket yönü
type MovementType string

const (
	MovementTypeDebit  MovementType = "debit"  // Borç (sipariş)
	MovementTypeCredit MovementType = "credit" // Alacak (ödeme)
)

// LedgerMovement - Cari hareket; cari bakiyesi bu kayıtlardan yeniden
// kurulur. Her hareket tam olarak bir ödemeye veya bir siparişe bağlıdır
// ve bağlı olduğu kayıtla birlikte silinir.
type LedgerMovement struct {
	ID          uint         `gorm:"primaryKey"`
	CustomerID  uint         `gorm:"index;not null"`
	Customer    Customer     `gorm:"foreignKey:CustomerID"`
	Type        MovementType `gorm:"type:varchar(10);not null"`
	Amount      float64      `gorm:"not null"`
	PaymentID   *uint        `gorm:"index"` // Ödemeden türeyen hareket
	OrderID     *uint        `gorm:"index"` // Siparişten türeyen hareket
	Description string       `gorm:"size:255"`
	CreatedAt   time.Time
}
