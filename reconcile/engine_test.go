package reconcile

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Govind-619/GreenLedger/config"
	"github.com/Govind-619/GreenLedger/ledger"
	"github.com/Govind-619/GreenLedger/membership"
	"github.com/Govind-619/GreenLedger/models"
	"github.com/Govind-619/GreenLedger/payment"
	"github.com/Govind-619/GreenLedger/pricing"
	"github.com/Govind-619/GreenLedger/testutil"
	"github.com/Govind-619/GreenLedger/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const webhookSecret = "whsec_test"

var now = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	engine   *Engine
	verifier *payment.Verifier
	razorpay *payment.Verifier
	user     *models.User
	order    *models.Order
}

func newFixture(t *testing.T, withMembership bool) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	zenobia := payment.NewZenobiaPay(config.ZenobiaConfig{WebhookSecret: webhookSecret}, time.Second)
	razorpay := payment.NewRazorpay(config.RazorpayConfig{Key: "rzp_test", Secret: "rzp_secret", WebhookSecret: webhookSecret}, "http://shop.test")
	grantor := membership.NewGrantor(db).WithClock(func() time.Time { return now })
	l := ledger.New(db, pricing.NewCalculator(pricing.DefaultTaxRate), "USD")

	user := testutil.CreateTestUser(t, db, "ivy@example.com")
	items := []models.CartItem{{ProductID: 7, Name: "Monstera", Price: decimal.RequireFromString("24.99")}}
	if withMembership {
		items = membership.DefaultOffer(100, decimal.RequireFromString("125.00")).WithMembershipLine(items)
	}
	order, err := l.CreateOrder(context.Background(), user.ID, items, ledger.Contact{Email: user.Email})
	require.NoError(t, err)

	f := &fixture{
		db:       db,
		engine:   NewEngine(db, payment.NewRegistry(zenobia, razorpay), grantor, 100),
		verifier: zenobia.Verifier(),
		razorpay: razorpay.Verifier(),
		user:     user,
		order:    order,
	}
	f.addTransaction(t, "tr_1")
	return f
}

func (f *fixture) addTransaction(t *testing.T, transferID string) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.Transaction{
		OrderID:       f.order.ID,
		TransferID:    transferID,
		AmountCents:   f.order.TotalAmountCents,
		Currency:      "USD",
		Status:        models.TransactionStatusPending,
		PaymentMethod: payment.ZenobiaPayName,
	}).Error)
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", f.order.ID).Update("transfer_id", transferID).Error)
}

func payload(transferID, status string) []byte {
	return []byte(fmt.Sprintf(`{"transfer_id":%q,"status":%q,"amount_cents":16236,"currency":"USD",`+
		`"merchant_id":"botanical-bliss","customer_name":"Ivy Green","created_at":"2026-05-01T09:00:00Z","updated_at":"2026-05-01T09:30:00Z"}`,
		transferID, status))
}

func (f *fixture) deliver(t *testing.T, body []byte) (*Result, error) {
	t.Helper()
	return f.engine.HandleWebhook(context.Background(), payment.ZenobiaPayName, body, f.verifier.Sign(body))
}

type snapshot struct {
	Order  models.Order
	Txns   []models.Transaction
	User   models.User
	Grants int64
}

func (f *fixture) snapshot(t *testing.T) snapshot {
	t.Helper()
	var s snapshot
	require.NoError(t, f.db.First(&s.Order, f.order.ID).Error)
	require.NoError(t, f.db.Order("id").Find(&s.Txns).Error)
	require.NoError(t, f.db.First(&s.User, f.user.ID).Error)
	require.NoError(t, f.db.Model(&models.MembershipGrant{}).Count(&s.Grants).Error)
	return s
}

func TestHandleWebhook_CompletedGrantsMembership(t *testing.T) {
	f := newFixture(t, true)

	result, err := f.deliver(t, payload("tr_1", "completed"))
	require.NoError(t, err)
	assert.Equal(t, f.order.ID, result.OrderID)
	assert.Equal(t, models.OrderStatusCompleted, result.OrderStatus)
	assert.True(t, result.StatusChanged)
	assert.True(t, result.MembershipGranted)

	s := f.snapshot(t)
	assert.Equal(t, models.OrderStatusCompleted, s.Order.Status)
	assert.True(t, s.Order.WebhookReceived)
	assert.Equal(t, "Ivy Green", s.Order.CustomerName)
	assert.Equal(t, models.TransactionStatusCompleted, s.Txns[0].Status)
	assert.Contains(t, s.Txns[0].RawPayload, `"tr_1"`)
	assert.True(t, s.User.IsMember)
	require.NotNil(t, s.User.MembershipExpiresOn)
	assert.WithinDuration(t, now.Add(membership.Term), *s.User.MembershipExpiresOn, time.Second)
	assert.Equal(t, int64(1), s.Grants)
}

func TestHandleWebhook_ReplayIsIdempotent(t *testing.T) {
	f := newFixture(t, true)
	body := payload("tr_1", "completed")

	_, err := f.deliver(t, body)
	require.NoError(t, err)
	first := f.snapshot(t)

	result, err := f.deliver(t, body)
	require.NoError(t, err)
	assert.False(t, result.StatusChanged)
	assert.False(t, result.MembershipGranted)

	second := f.snapshot(t)
	assert.Equal(t, first.Order.Status, second.Order.Status)
	assert.True(t, first.Order.UpdatedAt.Equal(second.Order.UpdatedAt))
	assert.True(t, first.User.MembershipExpiresOn.Equal(*second.User.MembershipExpiresOn))
	assert.Equal(t, first.Txns[0].Status, second.Txns[0].Status)
	assert.Equal(t, first.Txns[0].RawPayload, second.Txns[0].RawPayload)
	assert.Equal(t, int64(1), second.Grants)
}

func TestHandleWebhook_ConcurrentDuplicatesGrantOnce(t *testing.T) {
	f := newFixture(t, true)
	body := payload("tr_1", "completed")
	sig := f.verifier.Sign(body)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := f.engine.HandleWebhook(context.Background(), payment.ZenobiaPayName, body, sig)
			return err
		})
	}
	require.NoError(t, g.Wait())

	s := f.snapshot(t)
	assert.Equal(t, models.OrderStatusCompleted, s.Order.Status)
	assert.Equal(t, int64(1), s.Grants)
	assert.WithinDuration(t, now.Add(membership.Term), *s.User.MembershipExpiresOn, time.Second)
	assert.Zero(t, f.engine.locks.size())
}

func TestHandleWebhook_CompletedOrderIgnoresLaterStatuses(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.deliver(t, payload("tr_1", "completed"))
	require.NoError(t, err)
	before := f.snapshot(t)

	for _, status := range []string{"failed", "cancelled", "pending", "processing"} {
		result, err := f.deliver(t, payload("tr_1", status))
		require.NoError(t, err)
		assert.False(t, result.StatusChanged, status)
		assert.Equal(t, models.OrderStatusCompleted, result.OrderStatus, status)
	}

	after := f.snapshot(t)
	assert.Equal(t, models.OrderStatusCompleted, after.Order.Status)
	assert.True(t, before.User.MembershipExpiresOn.Equal(*after.User.MembershipExpiresOn))
	// the transaction still records what the processor said last
	assert.Equal(t, models.TransactionStatusProcessing, after.Txns[0].Status)
}

func TestHandleWebhook_StatusMapping(t *testing.T) {
	tests := []struct {
		status    string
		wantOrder string
		wantTxn   string
	}{
		{"failed", models.OrderStatusCancelled, models.TransactionStatusFailed},
		{"cancelled", models.OrderStatusCancelled, models.TransactionStatusCancelled},
		{"pending", models.OrderStatusProcessing, models.TransactionStatusPending},
		{"awaiting_bank", models.OrderStatusProcessing, models.TransactionStatusProcessing},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			f := newFixture(t, true)
			result, err := f.deliver(t, payload("tr_1", tt.status))
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrder, result.OrderStatus)
			assert.Equal(t, tt.wantTxn, result.TransactionStatus)
			assert.False(t, result.MembershipGranted)
			assert.False(t, f.snapshot(t).User.IsMember)
		})
	}
}

func TestHandleWebhook_ProcessingThenCompleted(t *testing.T) {
	f := newFixture(t, true)

	result, err := f.deliver(t, payload("tr_1", "processing"))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, result.OrderStatus)

	result, err = f.deliver(t, payload("tr_1", "completed"))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, result.OrderStatus)
	assert.True(t, result.MembershipGranted)
}

func TestHandleWebhook_WithoutMembershipLine(t *testing.T) {
	f := newFixture(t, false)

	result, err := f.deliver(t, payload("tr_1", "completed"))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, result.OrderStatus)
	assert.False(t, result.MembershipGranted)

	s := f.snapshot(t)
	assert.False(t, s.User.IsMember)
	assert.Zero(t, s.Grants)
}

func TestHandleWebhook_ResumesMissingGrant(t *testing.T) {
	f := newFixture(t, true)
	// A completed order whose grant never landed.
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", f.order.ID).
		Update("status", models.OrderStatusCompleted).Error)

	result, err := f.deliver(t, payload("tr_1", "completed"))
	require.NoError(t, err)
	assert.False(t, result.StatusChanged)
	assert.True(t, result.MembershipGranted)
	assert.True(t, f.snapshot(t).User.IsMember)
}

func TestHandleWebhook_RejectsWithoutMutation(t *testing.T) {
	f := newFixture(t, true)
	before := f.snapshot(t)
	body := payload("tr_1", "completed")
	ctx := context.Background()

	_, err := f.engine.HandleWebhook(ctx, payment.ZenobiaPayName, body, "")
	assert.True(t, utils.IsUnauthorizedError(err))

	_, err = f.engine.HandleWebhook(ctx, payment.ZenobiaPayName, body, "sha256=AAAA")
	assert.True(t, utils.IsUnauthorizedError(err))

	tampered := payload("tr_1", "completed")
	tampered[len(tampered)-2] = 'X'
	_, err = f.engine.HandleWebhook(ctx, payment.ZenobiaPayName, tampered, f.verifier.Sign(body))
	assert.True(t, utils.IsUnauthorizedError(err))

	garbage := []byte(`{"transfer_id":`)
	_, err = f.engine.HandleWebhook(ctx, payment.ZenobiaPayName, garbage, f.verifier.Sign(garbage))
	assert.True(t, utils.IsBadRequestError(err))

	_, err = f.engine.HandleWebhook(ctx, "stripe", body, f.verifier.Sign(body))
	assert.True(t, utils.IsNotFoundError(err))

	after := f.snapshot(t)
	assert.Equal(t, before.Order, after.Order)
	assert.Equal(t, before.Txns, after.Txns)
	assert.Equal(t, before.Grants, after.Grants)
}

func TestHandleWebhook_UnknownTransfer(t *testing.T) {
	f := newFixture(t, true)
	before := f.snapshot(t)

	_, err := f.deliver(t, payload("tr_missing", "completed"))
	require.Error(t, err)
	assert.True(t, utils.IsNotFoundError(err))
	assert.ErrorIs(t, err, ErrUnknownTransfer)

	after := f.snapshot(t)
	assert.Equal(t, before.Order, after.Order)
	assert.Equal(t, before.Txns, after.Txns)
	assert.False(t, after.User.IsMember)
}

func TestHandleWebhook_SupersededTransferStillCompletesOrder(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.db.Model(&models.Transaction{}).Where("transfer_id = ?", "tr_1").
		Update("status", models.TransactionStatusCancelled).Error)
	f.addTransaction(t, "tr_2")

	result, err := f.deliver(t, payload("tr_1", "completed"))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, result.OrderStatus)

	// the later attempt cannot complete it again
	result, err = f.deliver(t, payload("tr_2", "completed"))
	require.NoError(t, err)
	assert.False(t, result.StatusChanged)
	assert.Equal(t, int64(1), f.snapshot(t).Grants)
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Equal(t, 2, k.size())

	acquired := make(chan struct{})
	go func() {
		unlock := k.Lock("a")
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a locked key")
	case <-time.After(50 * time.Millisecond):
	}
	unlockA()
	<-acquired
	unlockB()
	assert.Eventually(t, func() bool { return k.size() == 0 }, time.Second, 10*time.Millisecond)
}

func razorpayPayload(event, orderID, status string) []byte {
	return []byte(fmt.Sprintf(`{"event":%q,"payload":{"payment":{"entity":`+
		`{"id":"pay_1","order_id":%q,"amount":16236,"currency":"usd","status":%q}}},"created_at":1777627800}`,
		event, orderID, status))
}

func TestHandleWebhook_RazorpayDeclineKeepsOrderPayable(t *testing.T) {
	f := newFixture(t, true)
	f.addTransaction(t, "order_Rz1")
	deliver := func(body []byte) *Result {
		t.Helper()
		result, err := f.engine.HandleWebhook(context.Background(), payment.RazorpayName, body, f.razorpay.Sign(body))
		require.NoError(t, err)
		return result
	}

	result := deliver(razorpayPayload("payment.failed", "order_Rz1", "failed"))
	assert.Equal(t, models.OrderStatusProcessing, result.OrderStatus)
	assert.Equal(t, models.TransactionStatusFailed, result.TransactionStatus)

	s := f.snapshot(t)
	assert.Equal(t, models.TransactionStatusFailed, s.Txns[1].Status)
	assert.Contains(t, s.Txns[1].RawPayload, "payment.failed")

	result = deliver(razorpayPayload("payment.captured", "order_Rz1", "captured"))
	assert.Equal(t, models.OrderStatusCompleted, result.OrderStatus)
	assert.True(t, result.MembershipGranted)

	s = f.snapshot(t)
	assert.Equal(t, models.TransactionStatusCompleted, s.Txns[1].Status)
	assert.True(t, s.User.IsMember)
}

func TestHandleWebhook_PersistenceFailureRollsBackAndResumes(t *testing.T) {
	f := newFixture(t, true)
	before := f.snapshot(t)
	require.NoError(t, f.db.Migrator().DropTable(&models.MembershipGrant{}))

	_, err := f.deliver(t, payload("tr_1", "completed"))
	require.Error(t, err)
	assert.True(t, utils.IsInternalServerError(err))

	var order models.Order
	require.NoError(t, f.db.First(&order, f.order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.False(t, order.WebhookReceived)
	var txn models.Transaction
	require.NoError(t, f.db.Where("transfer_id = ?", "tr_1").First(&txn).Error)
	assert.Equal(t, before.Txns[0], txn)
	var user models.User
	require.NoError(t, f.db.First(&user, f.user.ID).Error)
	assert.False(t, user.IsMember)

	require.NoError(t, config.Migrate(f.db))
	result, err := f.deliver(t, payload("tr_1", "completed"))
	require.NoError(t, err)
	assert.True(t, result.StatusChanged)
	assert.True(t, result.MembershipGranted)

	s := f.snapshot(t)
	assert.Equal(t, models.OrderStatusCompleted, s.Order.Status)
	assert.True(t, s.User.IsMember)
	assert.Equal(t, int64(1), s.Grants)
}

func TestHandleWebhook_MissingBuyerIsRetried(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.db.Delete(&models.User{}, f.user.ID).Error)

	_, err := f.deliver(t, payload("tr_1", "completed"))
	assert.True(t, utils.IsInternalServerError(err))
	assert.ErrorIs(t, err, membership.ErrUserMissing)

	var order models.Order
	require.NoError(t, f.db.First(&order, f.order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	has, err := membership.HasGrant(f.db, f.order.ID)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, f.db.Unscoped().Model(&models.User{}).Where("id = ?", f.user.ID).Update("deleted_at", nil).Error)
	result, err := f.deliver(t, payload("tr_1", "completed"))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, result.OrderStatus)
	assert.True(t, result.MembershipGranted)
}
