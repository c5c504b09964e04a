package order

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mutfak-backend/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrOrderNotFound - Sipariş yok
	ErrOrderNotFound = errors.New("sipariş bulunamadı")
	// ErrPaymentNotFound - Ödeme yok ya da bu siparişe ait değil
	ErrPaymentNotFound = errors.New("ödeme bulunamadı")
	// ErrHasPayments - Ödemesi olan sipariş force olmadan silinemez
	ErrHasPayments = errors.New("siparişin ödemeleri var, önce ödemeleri silin veya force kullanın")
	// ErrInvalidAmount - Ödeme tutarı pozitif olmalı
	ErrInvalidAmount = errors.New("ödeme tutarı 0'dan büyük olmalı")
)

// OverpaymentError - Ödeme, siparişin ödemeler toplamını sipariş tutarının
// üzerine çıkaracaktı. Çağıranın teşhis edebilmesi için tutarlar taşınır.
type OverpaymentError struct {
	OrderID    uint
	OrderTotal float64
	TotalPaid  float64
	Attempted  float64
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("toplam ödeme tutarı (%.2f TL) sipariş tutarını (%.2f TL) aşamaz",
		e.TotalPaid+e.Attempted, e.OrderTotal)
}

// statusFor - Ödeme durumu her zaman kalan ödemelerin toplamından sıfırdan
// hesaplanır, artırımlı güncellenmez.
func statusFor(total, paid float64) models.PaymentStatus {
	switch {
	case paid <= 0:
		return models.PaymentStatusPending
	case paid < total:
		return models.PaymentStatusPartial
	default:
		return models.PaymentStatusPaid
	}
}

func sumPayments(tx *gorm.DB, orderID uint) (float64, error) {
	var paid float64
	err := tx.Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&paid).Error
	return paid, err
}

type AddPaymentInput struct {
	OrderID     uint
	Amount      float64
	Method      string
	PaymentDate time.Time
	Description string
}

// AddPayment - Siparişe ödeme ekler. Mevcut ödemelerin toplanması, limit
// kontrolü, insert ve durum güncellemesi tek bir serializable transaction
// içinde yapılır: iki eşzamanlı ödeme birlikte limiti aşamaz.
func AddPayment(db *gorm.DB, in AddPaymentInput) (*models.Payment, error) {
	// Doğrulama transaction açılmadan önce
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if in.PaymentDate.IsZero() {
		in.PaymentDate = time.Now()
	}

	var payment models.Payment
	err := db.Transaction(func(tx *gorm.DB) error {
		var ord models.Order
		if err := tx.First(&ord, "id = ?", in.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		paid, err := sumPayments(tx, ord.ID)
		if err != nil {
			return err
		}

		if paid+in.Amount > ord.TotalAmount {
			return &OverpaymentError{
				OrderID:    ord.ID,
				OrderTotal: ord.TotalAmount,
				TotalPaid:  paid,
				Attempted:  in.Amount,
			}
		}

		payment = models.Payment{
			OrderID:     ord.ID,
			CustomerID:  ord.CustomerID,
			Amount:      in.Amount,
			Method:      in.Method,
			PaymentDate: in.PaymentDate,
			Description: in.Description,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		// Ödemeden türeyen cari hareket (alacak)
		movement := models.LedgerMovement{
			CustomerID:  ord.CustomerID,
			Type:        models.MovementTypeCredit,
			Amount:      in.Amount,
			PaymentID:   &payment.ID,
			Description: fmt.Sprintf("Sipariş %s ödemesi", ord.OrderNumber),
		}
		if err := tx.Create(&movement).Error; err != nil {
			return err
		}

		return tx.Model(&models.Order{}).
			Where("id = ?", ord.ID).
			Update("payment_status", statusFor(ord.TotalAmount, paid+in.Amount)).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

type PaymentDeleteResult struct {
	TotalPaid  float64 `json:"total_paid"`
	OrderTotal float64 `json:"order_total"`
}

// DeletePayment - Ödemeyi ve ona bağlı cari hareketleri siler; sipariş
// durumunu kalan ödemelerden yeniden hesaplar. Hepsi tek transaction.
func DeletePayment(db *gorm.DB, orderID, paymentID uint) (*PaymentDeleteResult, error) {
	var result PaymentDeleteResult

	err := db.Transaction(func(tx *gorm.DB) error {
		var ord models.Order
		if err := tx.First(&ord, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		var payment models.Payment
		if err := tx.First(&payment, "id = ? AND order_id = ?", paymentID, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}

		if err := tx.Where("payment_id = ?", payment.ID).Delete(&models.LedgerMovement{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&payment).Error; err != nil {
			return err
		}

		paid, err := sumPayments(tx, ord.ID)
		if err != nil {
			return err
		}

		result.TotalPaid = paid
		result.OrderTotal = ord.TotalAmount

		return tx.Model(&models.Order{}).
			Where("id = ?", ord.ID).
			Update("payment_status", statusFor(ord.TotalAmount, paid)).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// DeleteOrder - Siparişi kalıcı siler. Ödemesi olan sipariş ancak force ile
// silinir; force'ta bağımlı kayıtlar bağımlılık sırasıyla (ödeme hareketleri,
// ödemeler, sipariş hareketleri, satırlar, sipariş) tek transaction'da gider.
// Yarıda kalan bir silme hiçbir iz bırakmaz.
func DeleteOrder(db *gorm.DB, orderID uint, force bool) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var ord models.Order
		if err := tx.First(&ord, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		var paymentIDs []uint
		if err := tx.Model(&models.Payment{}).
			Where("order_id = ?", ord.ID).
			Pluck("id", &paymentIDs).Error; err != nil {
			return err
		}

		if len(paymentIDs) > 0 {
			if !force {
				return ErrHasPayments
			}
			if err := tx.Where("payment_id IN ?", paymentIDs).Delete(&models.LedgerMovement{}).Error; err != nil {
				return err
			}
			if err := tx.Where("order_id = ?", ord.ID).Delete(&models.Payment{}).Error; err != nil {
				return err
			}
		}

		// Siparişe doğrudan bağlı cari hareketler
		if err := tx.Where("order_id = ?", ord.ID).Delete(&models.LedgerMovement{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", ord.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ord).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}
