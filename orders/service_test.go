package orders

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smartfeastt/smartfeast-backend/access"
	"github.com/smartfeastt/smartfeast-backend/apperr"
	"github.com/smartfeastt/smartfeast-backend/config"
	"github.com/smartfeastt/smartfeast-backend/metrics"
	"github.com/smartfeastt/smartfeast-backend/models"
	"github.com/smartfeastt/smartfeast-backend/realtime"
)

type published struct {
	room string
	ev   realtime.Event
}

type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) Publish(room string, ev realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{room: room, ev: ev})
}

func (r *recorder) names(room string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, p := range r.events {
		if p.room == room {
			out = append(out, p.ev.Name)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

type fixture struct {
	svc      *Service
	db       *gorm.DB
	clock    *clock.Mock
	events   *recorder
	owner    models.User
	manager  models.User
	stranger models.User
	customer models.User
	outlet   models.Outlet
	other    models.Outlet
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	db, err := config.OpenDB(filepath.Join(t.TempDir(), "orders.db"), mock)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &fixture{db: db, clock: mock, events: &recorder{}}
	f.svc = NewService(db, f.events, mock, metrics.New(), zap.NewNop())

	f.owner = models.User{Name: "Olive", Email: "olive@example.com", Role: models.RoleOwner}
	f.manager = models.User{Name: "Max", Email: "max@example.com", Role: models.RoleManager}
	f.stranger = models.User{Name: "Sam", Email: "sam@example.com", Role: models.RoleManager}
	f.customer = models.User{Name: "Cara", Email: "cara@example.com", Role: models.RoleCustomer}
	for _, u := range []*models.User{&f.owner, &f.manager, &f.stranger, &f.customer} {
		require.NoError(t, db.Create(u).Error)
	}

	restaurant := models.Restaurant{OwnerID: f.owner.ID, Name: "Spice Route"}
	require.NoError(t, db.Create(&restaurant).Error)
	f.outlet = models.Outlet{Name: "Indiranagar", RestaurantID: restaurant.ID}
	f.other = models.Outlet{Name: "Koramangala", RestaurantID: restaurant.ID}
	require.NoError(t, db.Create(&f.outlet).Error)
	require.NoError(t, db.Create(&f.other).Error)
	require.NoError(t, db.Model(&f.outlet).Association("Managers").Append(&f.manager))
	return f
}

func (f *fixture) ownerID() access.Identity {
	return access.Owner{ID: f.owner.ID, Email: f.owner.Email}
}

func (f *fixture) customerID() access.Identity {
	return access.Customer{ID: f.customer.ID, Email: f.customer.Email}
}

func (f *fixture) input(outletID string, t models.OrderType) CreateOrderInput {
	return CreateOrderInput{
		Items: []LineItem{
			{ItemID: "i1", ItemName: "Dosa", ItemPrice: 80, Quantity: 2, OutletID: outletID},
			{ItemID: "i2", ItemName: "Filter Coffee", ItemPrice: 40, Quantity: 1, OutletID: outletID},
		},
		TotalPrice: 200,
		OrderType:  t,
	}
}

func code(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return apperr.Code(err)
}

var orderNumberPattern = regexp.MustCompile(`^ORD-\d+-\d+$`)

func TestCreateOrder_Guest(t *testing.T) {
	f := newFixture(t)
	in := f.input(f.outlet.ID, models.OrderTakeaway)
	in.CustomerInfo = &models.CustomerInfo{Name: "A", Email: "a@x.com", Phone: "123"}

	order, err := f.svc.CreateOrder(context.Background(), access.Guest{}, in)
	require.NoError(t, err)

	assert.Nil(t, order.UserID)
	require.NotNil(t, order.CustomerInfo)
	assert.Equal(t, "A", order.CustomerInfo.Name)
	assert.Regexp(t, orderNumberPattern, order.OrderNumber)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, models.PaymentCash, order.PaymentMethod)
	assert.Equal(t, f.outlet.RestaurantID, order.RestaurantID)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Dosa", order.Items[0].Name)
	require.NotNil(t, order.Restaurant)
	assert.Equal(t, "Spice Route", order.Restaurant.Name)

	assert.Equal(t, []string{realtime.EventNewOrder}, f.events.names(realtime.OutletRoom(f.outlet.ID)))
}

func TestCreateOrder_AuthenticatedClearsCart(t *testing.T) {
	f := newFixture(t)
	cart := models.Cart{UserID: f.customer.ID, Items: []models.CartItem{
		{ItemID: "i1", Name: "Dosa", Price: 80, Quantity: 2, OutletID: f.outlet.ID},
	}}
	require.NoError(t, f.db.Create(&cart).Error)

	in := f.input(f.outlet.ID, models.OrderDineIn)
	in.CustomerInfo = &models.CustomerInfo{Name: "ignored", Email: "i@x.com", Phone: "1"}
	order, err := f.svc.CreateOrder(context.Background(), f.customerID(), in)
	require.NoError(t, err)

	require.NotNil(t, order.UserID)
	assert.Equal(t, f.customer.ID, *order.UserID)
	assert.Nil(t, order.CustomerInfo)

	var n int64
	require.NoError(t, f.db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&n).Error)
	assert.Zero(t, n)

	assert.Equal(t, []string{realtime.EventOrderCreated}, f.events.names(realtime.UserRoom(f.customer.ID)))
}

func TestCreateOrder_NoCartIsFine(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateOrder(context.Background(), f.customerID(), f.input(f.outlet.ID, models.OrderTakeaway))
	assert.NoError(t, err)
}

func TestCreateOrder_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	guestInfo := &models.CustomerInfo{Name: "A", Email: "a@x.com", Phone: "123"}

	tests := []struct {
		name   string
		mutate func(in *CreateOrderInput)
		id     access.Identity
		want   string
	}{
		{"empty items", func(in *CreateOrderInput) { in.Items = nil }, f.customerID(), apperr.EInvalid},
		{"bad order type", func(in *CreateOrderInput) { in.OrderType = "drive_thru" }, f.customerID(), apperr.EInvalid},
		{"missing order type", func(in *CreateOrderInput) { in.OrderType = "" }, f.customerID(), apperr.EInvalid},
		{"guest without info", func(in *CreateOrderInput) {}, access.Guest{}, apperr.EInvalid},
		{"guest partial info", func(in *CreateOrderInput) {
			in.CustomerInfo = &models.CustomerInfo{Name: "A", Email: "a@x.com"}
		}, access.Guest{}, apperr.EInvalid},
		{"delivery without address", func(in *CreateOrderInput) { in.OrderType = models.OrderDelivery }, f.customerID(), apperr.EInvalid},
		{"bad payment method", func(in *CreateOrderInput) { in.PaymentMethod = "barter" }, f.customerID(), apperr.EInvalid},
		{"mixed outlets", func(in *CreateOrderInput) { in.Items[1].OutletID = f.other.ID }, f.customerID(), apperr.EInvalid},
		{"zero quantity", func(in *CreateOrderInput) { in.Items[0].Quantity = 0 }, f.customerID(), apperr.EInvalid},
		{"unknown outlet", func(in *CreateOrderInput) {
			in.CustomerInfo = guestInfo
			for i := range in.Items {
				in.Items[i].OutletID = "missing"
			}
		}, access.Guest{}, apperr.ENotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input(f.outlet.ID, models.OrderTakeaway)
			tt.mutate(&in)
			_, err := f.svc.CreateOrder(ctx, tt.id, in)
			assert.Equal(t, tt.want, code(t, err))
		})
	}

	var n int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, f.events.events)
}

func TestNextOrderNumber_RetriesOnCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	taken := []int{7, 7, 8}
	f.svc.intn = func(int) int {
		v := taken[0]
		taken = taken[1:]
		return v
	}

	first, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.outlet.ID, models.OrderTakeaway))
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.outlet.ID, models.OrderTakeaway))
	require.NoError(t, err)

	ms := f.clock.Now().UnixMilli()
	assert.Equal(t, fmt.Sprintf("ORD-%d-7", ms), first.OrderNumber)
	assert.Equal(t, fmt.Sprintf("ORD-%d-8", ms), second.OrderNumber)
}

func TestNextOrderNumber_GivesUp(t *testing.T) {
	f := newFixture(t)
	f.svc.intn = func(int) int { return 1 }
	_, err := f.svc.CreateOrder(context.Background(), f.customerID(), f.input(f.outlet.ID, models.OrderTakeaway))
	require.NoError(t, err)

	_, err = f.svc.nextOrderNumber(context.Background())
	assert.Equal(t, apperr.EConflict, code(t, err))
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.outlet.ID, models.OrderTakeaway))
	require.NoError(t, err)
	f.events.reset()

	manager := access.Manager{ID: f.manager.ID}
	updated, err := f.svc.UpdateStatus(ctx, manager, order.ID, models.StatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, updated.Status)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, []string{realtime.EventOrderUpdated}, f.events.names(realtime.OutletRoom(f.outlet.ID)))
	assert.Equal(t, []string{realtime.EventOrderUpdated}, f.events.names(realtime.UserRoom(f.customer.ID)))

	// same status again
	f.events.reset()
	again, err := f.svc.UpdateStatus(ctx, manager, order.ID, models.StatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Version)
	assert.Empty(t, f.events.events)

	_, err = f.svc.UpdateStatus(ctx, manager, order.ID, models.StatusConfirmed)
	assert.Equal(t, apperr.EUnprocessable, code(t, err))

	_, err = f.svc.UpdateStatus(ctx, f.ownerID(), order.ID, models.StatusCancelled)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.ownerID(), order.ID, models.StatusReady)
	assert.Equal(t, apperr.EUnprocessable, code(t, err))

	history, err := f.svc.History(ctx, f.ownerID(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.StatusPending, history[0].ToStatus)
	assert.Equal(t, models.StatusPreparing, history[1].ToStatus)
	assert.Equal(t, f.manager.ID, history[1].ChangedBy)
	assert.Equal(t, models.StatusCancelled, history[2].ToStatus)
}

func TestUpdateStatus_Denied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.outlet.ID, models.OrderTakeaway))
	require.NoError(t, err)

	// The token snapshot claims the outlet but the store does not.
	stale := access.Manager{ID: f.stranger.ID, ManagedOutlets: []string{f.outlet.ID}}
	_, err = f.svc.UpdateStatus(ctx, stale, order.ID, models.StatusConfirmed)
	assert.Equal(t, apperr.EForbidden, code(t, err))

	_, err = f.svc.UpdateStatus(ctx, f.customerID(), order.ID, models.StatusConfirmed)
	assert.Equal(t, apperr.EForbidden, code(t, err))

	_, err = f.svc.UpdateStatus(ctx, f.ownerID(), "missing", models.StatusConfirmed)
	assert.Equal(t, apperr.ENotFound, code(t, err))

	_, err = f.svc.UpdateStatus(ctx, f.ownerID(), order.ID, "teleported")
	assert.Equal(t, apperr.EInvalid, code(t, err))
}

func TestUpdateStatus_StaleVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.outlet.ID, models.OrderTakeaway))
	require.NoError(t, err)

	// A concurrent writer bumps the version after our read.
	stale := *order
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("version", order.Version+1).Error)

	err = compareAndSwap(f.db, &stale, map[string]any{"status": models.StatusConfirmed})
	assert.Equal(t, apperr.EConflict, code(t, err))
}

func TestUpdatePaymentStatus_Cascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.outlet.ID, models.OrderTakeaway))
	require.NoError(t, err)
	f.events.reset()

	paid, err := f.svc.UpdatePaymentStatus(ctx, access.Service{Name: "payments"}, order.ID, models.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, paid.PaymentStatus)
	assert.Equal(t, models.StatusConfirmed, paid.Status)

	assert.Equal(t,
		[]string{realtime.EventPaymentUpdated, realtime.EventNewOrder},
		f.events.names(realtime.OutletRoom(f.outlet.ID)))
	assert.Equal(t, []string{realtime.EventPaymentUpdated}, f.events.names(realtime.UserRoom(f.customer.ID)))

	history, err := f.svc.History(ctx, f.ownerID(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.StatusConfirmed, history[1].ToStatus)
	assert.Equal(t, "payments", history[1].ChangedBy)
}

func TestUpdatePaymentStatus_NoCascadePastPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.outlet.ID, models.OrderTakeaway))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.ownerID(), order.ID, models.StatusPreparing)
	require.NoError(t, err)

	paid, err := f.svc.UpdatePaymentStatus(ctx, f.ownerID(), order.ID, models.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, paid.Status)
}

func TestUpdatePaymentStatus_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.outlet.ID, models.OrderTakeaway))
	require.NoError(t, err)

	_, err = f.svc.UpdatePaymentStatus(ctx, f.ownerID(), order.ID, "maybe")
	assert.Equal(t, apperr.EInvalid, code(t, err))

	_, err = f.svc.UpdatePaymentStatus(ctx, f.customerID(), order.ID, models.PaymentPaid)
	assert.Equal(t, apperr.EForbidden, code(t, err))

	v, err := f.svc.Verify(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, v.PaymentStatus)
}

func TestOutletOrders_OnlyPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := access.Service{Name: "payments"}

	unpaid, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.outlet.ID, models.OrderTakeaway))
	require.NoError(t, err)
	paidTakeaway, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.outlet.ID, models.OrderTakeaway))
	require.NoError(t, err)
	paidDineIn, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.outlet.ID, models.OrderDineIn))
	require.NoError(t, err)
	failed, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.outlet.ID, models.OrderDineIn))
	require.NoError(t, err)

	for _, o := range []*models.Order{paidTakeaway, paidDineIn} {
		_, err = f.svc.UpdatePaymentStatus(ctx, svc, o.ID, models.PaymentPaid)
		require.NoError(t, err)
	}
	_, err = f.svc.UpdatePaymentStatus(ctx, svc, failed.ID, models.PaymentFailed)
	require.NoError(t, err)

	all, err := f.svc.OutletOrders(ctx, access.Manager{ID: f.manager.ID}, f.outlet.ID, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{paidTakeaway.ID, paidDineIn.ID}, ids(all))
	for _, o := range all {
		assert.NotEqual(t, unpaid.ID, o.ID)
		assert.Equal(t, models.PaymentPaid, o.PaymentStatus)
	}

	dineIn, err := f.svc.OutletOrders(ctx, f.ownerID(), f.outlet.ID, "dine_in")
	require.NoError(t, err)
	assert.Equal(t, []string{paidDineIn.ID}, ids(dineIn))

	ignored, err := f.svc.OutletOrders(ctx, f.ownerID(), f.outlet.ID, "hovercraft")
	require.NoError(t, err)
	assert.Len(t, ignored, 2)

	_, err = f.svc.OutletOrders(ctx, access.Manager{ID: f.stranger.ID}, f.outlet.ID, "")
	assert.Equal(t, apperr.EForbidden, code(t, err))
	_, err = f.svc.OutletOrders(ctx, f.ownerID(), "missing", "")
	assert.Equal(t, apperr.ENotFound, code(t, err))
}

func TestUserOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.outlet.ID, models.OrderTakeaway))
	require.NoError(t, err)
	f.clock.Add(time.Minute)
	second, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.other.ID, models.OrderTakeaway))
	require.NoError(t, err)

	orders, err := f.svc.UserOrders(ctx, f.customerID())
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, ids(orders))

	_, err = f.svc.UserOrders(ctx, access.Guest{})
	assert.Equal(t, apperr.EUnauthorized, code(t, err))
}

func TestSyncVendorOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pay := func(o *models.Order) {
		_, err := f.svc.UpdatePaymentStatus(ctx, access.Service{Name: "payments"}, o.ID, models.PaymentPaid)
		require.NoError(t, err)
	}

	t1 := f.clock.Now()
	early, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.outlet.ID, models.OrderTakeaway))
	require.NoError(t, err)
	pay(early)

	f.clock.Add(time.Hour)
	late, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.outlet.ID, models.OrderTakeaway))
	require.NoError(t, err)
	pay(late)
	elsewhere, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.other.ID, models.OrderTakeaway))
	require.NoError(t, err)
	pay(elsewhere)
	_, err = f.svc.CreateOrder(ctx, f.customerID(), f.input(f.outlet.ID, models.OrderTakeaway))
	require.NoError(t, err)

	since := t1.Add(30 * time.Minute)

	res, err := f.svc.SyncVendorOrders(ctx, access.Manager{ID: f.manager.ID}, since)
	require.NoError(t, err)
	assert.Equal(t, []string{late.ID}, ids(res.Orders))
	assert.True(t, res.SyncedAt.Equal(f.clock.Now()))

	res, err = f.svc.SyncVendorOrders(ctx, f.ownerID(), since)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{late.ID, elsewhere.ID}, ids(res.Orders))

	res, err = f.svc.SyncVendorOrders(ctx, f.ownerID(), time.Time{})
	require.NoError(t, err)
	assert.Len(t, res.Orders, 3)

	res, err = f.svc.SyncVendorOrders(ctx, access.Manager{ID: f.stranger.ID}, since)
	require.NoError(t, err)
	assert.Empty(t, res.Orders)
	assert.False(t, res.SyncedAt.IsZero())

	_, err = f.svc.SyncVendorOrders(ctx, f.customerID(), since)
	assert.Equal(t, apperr.EForbidden, code(t, err))
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, f.customerID(), f.input(f.outlet.ID, models.OrderTakeaway))
	require.NoError(t, err)

	v, err := f.svc.Verify(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, v.OrderNumber)
	assert.Equal(t, 200.0, v.TotalPrice)

	_, err = f.svc.Verify(ctx, "missing")
	assert.Equal(t, apperr.ENotFound, code(t, err))
}

func ids(orders []models.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}
