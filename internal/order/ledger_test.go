package order

import (
	"fmt"
	"testing"

	"mutfak-backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Customer{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.LedgerMovement{},
	))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, total float64) *models.Order {
	t.Helper()
	cu := models.Customer{Name: "Hasan Usta", IsActive: true}
	require.NoError(t, db.Create(&cu).Error)

	var seq int64
	require.NoError(t, db.Model(&models.Order{}).Count(&seq).Error)

	ord := models.Order{
		OrderNumber:   fmt.Sprintf("SIP-%s-%d", t.Name(), seq+1),
		CustomerID:    cu.ID,
		TotalAmount:   total,
		PaymentStatus: models.PaymentStatusPending,
	}
	require.NoError(t, db.Create(&ord).Error)

	product := models.Product{Name: "Karışık Menü", Unit: "adet", IsActive: true}
	require.NoError(t, db.Create(&product).Error)
	item := models.OrderItem{OrderID: ord.ID, ProductID: product.ID, Quantity: 1, UnitPrice: total, LineTotal: total}
	require.NoError(t, db.Create(&item).Error)

	movement := models.LedgerMovement{CustomerID: cu.ID, Type: models.MovementTypeDebit, Amount: total, OrderID: &ord.ID}
	require.NoError(t, db.Create(&movement).Error)

	return &ord
}

func orderStatus(t *testing.T, db *gorm.DB, id uint) models.PaymentStatus {
	t.Helper()
	var ord models.Order
	require.NoError(t, db.First(&ord, "id = ?", id).Error)
	return ord.PaymentStatus
}

func TestPaymentLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ord := seedOrder(t, db, 1000)

	// 600 TL: kısmi
	p1, err := AddPayment(db, AddPaymentInput{OrderID: ord.ID, Amount: 600, Method: "nakit"})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPartial, orderStatus(t, db, ord.ID))

	// 500 TL daha: limit aşımı, hiçbir iz bırakmadan reddedilir
	_, err = AddPayment(db, AddPaymentInput{OrderID: ord.ID, Amount: 500, Method: "kart"})
	var overpay *OverpaymentError
	require.ErrorAs(t, err, &overpay)
	require.Equal(t, 1000.0, overpay.OrderTotal)
	require.Equal(t, 600.0, overpay.TotalPaid)
	require.Equal(t, 500.0, overpay.Attempted)

	var count int64
	require.NoError(t, db.Model(&models.Payment{}).Where("order_id = ?", ord.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
	require.Equal(t, models.PaymentStatusPartial, orderStatus(t, db, ord.ID))

	// 400 TL: tam ödendi
	_, err = AddPayment(db, AddPaymentInput{OrderID: ord.ID, Amount: 400, Method: "kart"})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPaid, orderStatus(t, db, ord.ID))

	// İlk ödeme silinince durum tekrar kısmiye döner
	res, err := DeletePayment(db, ord.ID, p1.ID)
	require.NoError(t, err)
	require.Equal(t, 400.0, res.TotalPaid)
	require.Equal(t, 1000.0, res.OrderTotal)
	require.Equal(t, models.PaymentStatusPartial, orderStatus(t, db, ord.ID))
}

func TestAddPaymentCreatesCreditMovement(t *testing.T) {
	db := setupTestDB(t)
	ord := seedOrder(t, db, 500)

	p, err := AddPayment(db, AddPaymentInput{OrderID: ord.ID, Amount: 200, Method: "havale"})
	require.NoError(t, err)

	var movements []models.LedgerMovement
	require.NoError(t, db.Where("payment_id = ?", p.ID).Find(&movements).Error)
	require.Len(t, movements, 1)
	require.Equal(t, models.MovementTypeCredit, movements[0].Type)
	require.Equal(t, 200.0, movements[0].Amount)
	require.Equal(t, ord.CustomerID, movements[0].CustomerID)
}

func TestDeletePaymentRemovesItsMovements(t *testing.T) {
	db := setupTestDB(t)
	ord := seedOrder(t, db, 500)

	p, err := AddPayment(db, AddPaymentInput{OrderID: ord.ID, Amount: 500, Method: "nakit"})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPaid, orderStatus(t, db, ord.ID))

	_, err = DeletePayment(db, ord.ID, p.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.LedgerMovement{}).Where("payment_id = ?", p.ID).Count(&count).Error)
	require.Zero(t, count)
	require.Equal(t, models.PaymentStatusPending, orderStatus(t, db, ord.ID))
}

func TestAddPaymentValidation(t *testing.T) {
	db := setupTestDB(t)
	ord := seedOrder(t, db, 100)

	_, err := AddPayment(db, AddPaymentInput{OrderID: ord.ID, Amount: 0, Method: "nakit"})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = AddPayment(db, AddPaymentInput{OrderID: ord.ID, Amount: -50, Method: "nakit"})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = AddPayment(db, AddPaymentInput{OrderID: 9999, Amount: 50, Method: "nakit"})
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestExactPaymentIsPaid(t *testing.T) {
	db := setupTestDB(t)
	ord := seedOrder(t, db, 250)

	_, err := AddPayment(db, AddPaymentInput{OrderID: ord.ID, Amount: 250, Method: "kart"})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPaid, orderStatus(t, db, ord.ID))
}

func TestDeletePaymentWrongOrder(t *testing.T) {
	db := setupTestDB(t)
	ord1 := seedOrder(t, db, 100)
	ord2 := seedOrder(t, db, 100)

	p, err := AddPayment(db, AddPaymentInput{OrderID: ord1.ID, Amount: 50, Method: "nakit"})
	require.NoError(t, err)

	_, err = DeletePayment(db, ord2.ID, p.ID)
	require.ErrorIs(t, err, ErrPaymentNotFound)

	// Yanlış denemeden sonra ödeme yerinde duruyor
	var count int64
	require.NoError(t, db.Model(&models.Payment{}).Where("id = ?", p.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestDeleteOrderBlockedByPayments(t *testing.T) {
	db := setupTestDB(t)
	ord := seedOrder(t, db, 300)

	_, err := AddPayment(db, AddPaymentInput{OrderID: ord.ID, Amount: 100, Method: "nakit"})
	require.NoError(t, err)

	err = DeleteOrder(db, ord.ID, false)
	require.ErrorIs(t, err, ErrHasPayments)

	// Sipariş dokunulmadan duruyor
	var count int64
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", ord.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestForceDeleteOrderLeavesNoRows(t *testing.T) {
	db := setupTestDB(t)
	ord := seedOrder(t, db, 800)

	_, err := AddPayment(db, AddPaymentInput{OrderID: ord.ID, Amount: 300, Method: "nakit"})
	require.NoError(t, err)
	_, err = AddPayment(db, AddPaymentInput{OrderID: ord.ID, Amount: 500, Method: "kart"})
	require.NoError(t, err)

	require.NoError(t, DeleteOrder(db, ord.ID, true))

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", ord.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.OrderItem{}).Where("order_id = ?", ord.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.Payment{}).Where("order_id = ?", ord.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.LedgerMovement{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestDeleteOrderWithoutPayments(t *testing.T) {
	db := setupTestDB(t)
	ord := seedOrder(t, db, 150)

	require.NoError(t, DeleteOrder(db, ord.ID, false))

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", ord.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.LedgerMovement{}).Where("order_id = ?", ord.ID).Count(&count).Error)
	require.Zero(t, count)

	require.ErrorIs(t, DeleteOrder(db, ord.ID, false), ErrOrderNotFound)
}

func TestStatusFor(t *testing.T) {
	require.Equal(t, models.PaymentStatusPending, statusFor(100, 0))
	require.Equal(t, models.PaymentStatusPartial, statusFor(100, 40))
	require.Equal(t, models.PaymentStatusPaid, statusFor(100, 100))
	require.Equal(t, models.PaymentStatusPaid, statusFor(100, 120))
}
