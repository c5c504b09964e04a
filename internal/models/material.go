package models

import "time"

// Material - Reçetelerde kullanılan hammadde/malzeme
type Material struct {
	ID            uint    `gorm:"primaryKey"`
	Code          string  `gorm:"size:50;uniqueIndex;not null"` // Malzeme kodu (büyük harfe normalize edilir)
	Name          string  `gorm:"size:100;not null;index"`
	Unit          string  `gorm:"size:20;not null"` // kg, lt, adet vs.
	UnitPrice     float64 `gorm:"not null;default:0"` // 0 = fiyat bilinmiyor, ürün fiyatından çözülür
	IsActive      bool    `gorm:"not null;index"`
	MinStock      float64 `gorm:"not null;default:0"`
	CriticalStock float64 `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
