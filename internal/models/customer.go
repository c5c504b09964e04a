package models

import "time"

// Customer - Cari; siparişler, ödemeler ve cari hareketler buna bağlanır
type Customer struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;index"`
	Phone     string `gorm:"size:20"`
	IsActive  bool   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
