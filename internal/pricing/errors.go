package pricing

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrProductNotFound - Fiyat kaydı açılmak istenen ürün yok
	ErrProductNotFound = errors.New("ürün bulunamadı")
	// ErrProductInactive - Pasif ürüne fiyat kaydı açılamaz
	ErrProductInactive = errors.New("ürün pasif durumda, fiyat kaydı açılamaz")
)

// InvalidPriceError - Fiyat doğrulama hatası (birim fiyat <= 0, bitiş <= başlangıç vs.)
type InvalidPriceError struct {
	Reason string
}

func (e *InvalidPriceError) Error() string {
	return "geçersiz fiyat kaydı: " + e.Reason
}

// OverlapError - Aynı (ürün, fiyat türü) için çakışan aktif fiyat kaydı var.
// Çakışan kaydın kimliği ve aralığı, çağıranın sorunu teşhis edebilmesi için taşınır.
type OverlapError struct {
	ConflictID uint
	StartDate  time.Time
	EndDate    *time.Time
}

func (e *OverlapError) Error() string {
	end := "süresiz"
	if e.EndDate != nil {
		end = e.EndDate.Format("2006-01-02")
	}
	return fmt.Sprintf("çakışan aktif fiyat kaydı var (id=%d, %s - %s)",
		e.ConflictID, e.StartDate.Format("2006-01-02"), end)
}
