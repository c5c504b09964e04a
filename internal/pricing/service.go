package pricing

import (
	"database/sql"
	"errors"
	"time"

	"mutfak-backend/internal/models"

	"gorm.io/gorm"
)

// ResolvePrice - Bir ürünün verilen tarihte geçerli fiyat kaydını döner.
// Aktif, silinmemiş ve tarihi kapsayan kayıtlar arasından başlangıcı en yeni
// olan seçilir; eşitlikte en son oluşturulan kazanır. Kayıt yoksa (nil, nil)
// döner: fiyat bulunamaması bir hata değil, normal bir durumdur.
func ResolvePrice(db *gorm.DB, productID uint, priceType models.PriceType, asOf time.Time) (*models.PriceRecord, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}

	var rec models.PriceRecord
	err := db.
		Where("product_id = ? AND price_type = ? AND is_active = ? AND deleted_at IS NULL", productID, priceType, true).
		Where("start_date <= ?", asOf).
		Where("end_date IS NULL OR end_date >= ?", asOf).
		Order("start_date DESC, id DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

type CreatePriceInput struct {
	ProductID uint
	PriceType models.PriceType
	UnitPrice float64
	Unit      string
	StartDate time.Time
	EndDate   *time.Time

	// DeactivateOverlapping - Çakışan aktif kayıtlar aynı transaction içinde
	// pasife çekilir; aksi halde çakışma OverlapError ile reddedilir.
	DeactivateOverlapping bool
}

// CreatePriceRecord - Yeni fiyat kaydı açar. Çakışma kontrolü ve insert,
// iki eşzamanlı isteğin ikisinin de çakışan kayıtla geçmesini önlemek için
// tek bir serializable transaction içinde yapılır.
func CreatePriceRecord(db *gorm.DB, in CreatePriceInput) (*models.PriceRecord, error) {
	// Doğrulamalar transaction açılmadan önce
	if in.UnitPrice <= 0 {
		return nil, &InvalidPriceError{Reason: "birim fiyat 0'dan büyük olmalı"}
	}
	if in.EndDate != nil && !in.EndDate.After(in.StartDate) {
		return nil, &InvalidPriceError{Reason: "bitiş tarihi başlangıç tarihinden sonra olmalı"}
	}
	if !models.ValidPriceType(string(in.PriceType)) {
		return nil, &InvalidPriceError{Reason: "fiyat türü sale/purchase/transfer/special olmalı"}
	}

	var product models.Product
	if err := db.First(&product, "id = ?", in.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductInactive
	}

	rec := models.PriceRecord{
		ProductID: in.ProductID,
		PriceType: in.PriceType,
		UnitPrice: in.UnitPrice,
		Unit:      in.Unit,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		IsActive:  true,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// Aralığı çakışan aktif kayıtlar: mevcut.start <= yeni.end (yeni açık uçluysa her zaman)
		// ve (mevcut.end null veya mevcut.end >= yeni.start)
		q := tx.
			Where("product_id = ? AND price_type = ? AND is_active = ? AND deleted_at IS NULL", in.ProductID, in.PriceType, true).
			Where("end_date IS NULL OR end_date >= ?", in.StartDate)
		if in.EndDate != nil {
			q = q.Where("start_date <= ?", *in.EndDate)
		}

		var conflicts []models.PriceRecord
		if err := q.Find(&conflicts).Error; err != nil {
			return err
		}

		if len(conflicts) > 0 {
			if !in.DeactivateOverlapping {
				c := conflicts[0]
				return &OverlapError{ConflictID: c.ID, StartDate: c.StartDate, EndDate: c.EndDate}
			}
			ids := make([]uint, 0, len(conflicts))
			for _, c := range conflicts {
				ids = append(ids, c.ID)
			}
			if err := tx.Model(&models.PriceRecord{}).
				Where("id IN ?", ids).
				Update("is_active", false).Error; err != nil {
				return err
			}
		}

		return tx.Create(&rec).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}

	return &rec, nil
}
