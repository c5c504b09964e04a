package models

import "time"

// Product - Satılabilir ürün; reçeteler ve fiyat kayıtları buna bağlanır
type Product struct {
	ID           uint       `gorm:"primaryKey"`
	Name         string     `gorm:"size:100;not null;index"`
	Unit         string     `gorm:"size:20;not null"` // kg, adet, porsiyon vs.
	IsActive     bool       `gorm:"not null;index"`
	DeletedAt    *time.Time `gorm:"index"`
	DeletedBy    string     `gorm:"size:100"`
	DeleteReason string     `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
