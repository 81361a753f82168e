package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-storefront-service/config"
	"github.com/fekuna/omnipos-storefront-service/internal/httpresp"
	invdto "github.com/fekuna/omnipos-storefront-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/order"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/payment"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/fekuna/omnipos-storefront-service/pkg/worker"
)

const (
	userID  = "6f1c2b1e-0d7a-4c55-9a43-3f6f0c1d2e01"
	otherID = "6f1c2b1e-0d7a-4c55-9a43-3f6f0c1d2e02"
	prodA   = "0b8e4a52-5f0c-4f8e-8d55-1c2a3b4c5d01"
	prodB   = "0b8e4a52-5f0c-4f8e-8d55-1c2a3b4c5d02"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// store backs every fake repository so stock, carts and orders stay consistent.
type store struct {
	mu        sync.Mutex
	products  map[string]*model.Product
	cart      []model.CartItem
	orders    map[string]*model.Order
	items     map[string][]model.OrderItem
	movements []model.InventoryMovement
	payments  map[string]*model.Payment

	createCalls        int
	numberClashes      int
	failItems          bool
	failPaymentUpdates int
	failCommits        int
	onCreate           func()
	orderNumberLog     []string
}

func newStore() *store {
	return &store{
		products: map[string]*model.Product{},
		orders:   map[string]*model.Order{},
		items:    map[string][]model.OrderItem{},
		payments: map[string]*model.Payment{},
	}
}

func (s *store) addProduct(id, name, price string, stock int) {
	s.products[id] = &model.Product{
		BaseModel: model.BaseModel{ID: id},
		Name:      name,
		Brand:     "Acme",
		Category:  "Shirts",
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Status:    model.ProductStatusActive,
	}
}

func (s *store) addToCart(user, productID, size string, qty int) {
	s.cart = append(s.cart, model.CartItem{
		ID:        productID + "-" + size,
		UserID:    user,
		ProductID: productID,
		Size:      size,
		Quantity:  qty,
	})
}

func (s *store) stock(id string) int { return s.products[id].Stock }

type orderRepo struct{ *store }

func (r orderRepo) Create(_ context.Context, o *model.Order) error {
	r.createCalls++
	r.orderNumberLog = append(r.orderNumberLog, o.OrderNumber)
	if r.onCreate != nil {
		r.onCreate()
	}
	if r.numberClashes > 0 {
		r.numberClashes--
		return &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
	}
	cp := *o
	cp.Items = nil
	r.orders[o.ID] = &cp
	return nil
}

func (r orderRepo) CreateItems(_ context.Context, items []model.OrderItem) error {
	if r.failItems {
		return context.DeadlineExceeded
	}
	for _, it := range items {
		r.items[it.OrderID] = append(r.items[it.OrderID], it)
	}
	return nil
}

func (r orderRepo) FindByID(_ context.Context, id string, _ bool) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r orderRepo) ItemsByOrders(_ context.Context, ids []string) (map[string][]model.OrderItem, error) {
	out := map[string][]model.OrderItem{}
	for _, id := range ids {
		if items, ok := r.items[id]; ok {
			out[id] = append([]model.OrderItem(nil), items...)
		}
	}
	return out, nil
}

func (r orderRepo) ListByUser(_ context.Context, user string) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.orders {
		if o.UserID == user {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r orderRepo) ListAll(_ context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	var out []model.Order
	for _, o := range r.orders {
		if f.Status == "" || f.Status == "all" || string(o.Status) == f.Status {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (r orderRepo) UpdateStatus(_ context.Context, id string, status model.OrderStatus) (bool, error) {
	o, ok := r.orders[id]
	if !ok {
		return false, nil
	}
	o.Status = status
	return true, nil
}

func (r orderRepo) UpdatePaymentStatus(_ context.Context, id string, status model.PaymentStatus) (bool, error) {
	o, ok := r.orders[id]
	if !ok {
		return false, nil
	}
	o.PaymentStatus = status
	return true, nil
}

func (r orderRepo) FindByPaymentReference(_ context.Context, ref string, _ bool) (*model.Order, error) {
	for _, o := range r.orders {
		if o.PaymentReference != nil && *o.PaymentReference == ref {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r orderRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := r.orders[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	delete(r.orders, id)
	return true, nil
}

func (r orderRepo) Stats(_ context.Context, threshold int) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{TotalOrders: len(r.orders), TotalProducts: len(r.products), Revenue: decimal.Zero}
	for _, o := range r.orders {
		if o.Status != model.OrderStatusCancelled {
			stats.Revenue = stats.Revenue.Add(o.TotalAmount)
		}
	}
	for _, p := range r.products {
		if p.Stock > 0 && p.Stock <= threshold {
			stats.LowStockProducts++
		}
	}
	return stats, nil
}

type cartRepo struct{ *store }

func (r cartRepo) ListByUser(_ context.Context, user string) ([]model.CartLine, error) {
	var out []model.CartLine
	for _, it := range r.cart {
		if it.UserID != user {
			continue
		}
		line := model.CartLine{CartItem: it}
		if p, ok := r.products[it.ProductID]; ok {
			name, brand, cat := p.Name, p.Brand, p.Category
			price, stock, status := p.Price, p.Stock, p.Status
			line.ProductName = &name
			line.ProductBrand = &brand
			line.ProductCategory = &cat
			line.ProductPrice = &price
			line.ProductStock = &stock
			line.ProductStatus = &status
		}
		out = append(out, line)
	}
	return out, nil
}

func (r cartRepo) Upsert(_ context.Context, item *model.CartItem) (*model.CartItem, error) {
	r.cart = append(r.cart, *item)
	return item, nil
}

func (r cartRepo) SetQuantity(_ context.Context, _, _ string, _ int) (bool, error) { return true, nil }
func (r cartRepo) Remove(_ context.Context, _, _ string) error                    { return nil }

func (r cartRepo) Clear(_ context.Context, user string) error {
	kept := r.cart[:0]
	for _, it := range r.cart {
		if it.UserID != user {
			kept = append(kept, it)
		}
	}
	r.cart = kept
	return nil
}

func (s *store) cartSize(user string) int {
	n := 0
	for _, it := range s.cart {
		if it.UserID == user {
			n++
		}
	}
	return n
}

type inventoryRepo struct{ *store }

func (r inventoryRepo) Decrement(_ context.Context, id string, qty int) (int, bool, error) {
	p, ok := r.products[id]
	if !ok {
		return 0, false, nil
	}
	if p.Stock < qty {
		return p.Stock, false, nil
	}
	p.Stock -= qty
	return p.Stock, true, nil
}

func (r inventoryRepo) Restore(_ context.Context, id string, qty int) (int, bool, error) {
	p, ok := r.products[id]
	if !ok {
		return 0, false, nil
	}
	p.Stock += qty
	return p.Stock, true, nil
}

func (r inventoryRepo) Adjust(_ context.Context, id string, delta int) (int, bool, error) {
	p, ok := r.products[id]
	if !ok || p.Stock+delta < 0 {
		return 0, false, nil
	}
	p.Stock += delta
	return p.Stock, true, nil
}

func (r inventoryRepo) LogMovement(_ context.Context, m *model.InventoryMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r inventoryRepo) ListMovements(_ context.Context, _ *invdto.MovementFilters) ([]model.InventoryMovement, int, error) {
	return r.movements, len(r.movements), nil
}

func (r inventoryRepo) PurgeMovementsBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (r inventoryRepo) ListLowStock(_ context.Context, _ *invdto.InventoryFilters) ([]model.Product, int, error) {
	return nil, 0, nil
}

type paymentRepo struct{ *store }

func (r paymentRepo) Create(_ context.Context, p *model.Payment) error {
	cp := *p
	r.payments[p.Reference] = &cp
	return nil
}

func (r paymentRepo) FindByOrder(_ context.Context, orderID string) (*model.Payment, error) {
	for _, p := range r.payments {
		if p.OrderID == orderID {
			return p, nil
		}
	}
	return nil, nil
}

func (r paymentRepo) UpdateStatus(_ context.Context, ref string, status model.PaymentRecordStatus) error {
	if r.failPaymentUpdates > 0 {
		r.failPaymentUpdates--
		return errors.New("db down")
	}
	if p, ok := r.payments[ref]; ok {
		p.Status = status
	}
	return nil
}

type passTx struct{}

func (passTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

// rollbackTx undoes every store change when fn fails or the commit is made to fail.
type rollbackTx struct{ s *store }

type storeSnapshot struct {
	stock     map[string]int
	orders    map[string]model.Order
	items     map[string][]model.OrderItem
	payments  map[string]model.Payment
	cart      []model.CartItem
	movements int
}

func (s *store) snapshot() storeSnapshot {
	snap := storeSnapshot{
		stock:     map[string]int{},
		orders:    map[string]model.Order{},
		items:     map[string][]model.OrderItem{},
		payments:  map[string]model.Payment{},
		cart:      append([]model.CartItem(nil), s.cart...),
		movements: len(s.movements),
	}
	for id, p := range s.products {
		snap.stock[id] = p.Stock
	}
	for id, o := range s.orders {
		snap.orders[id] = *o
	}
	for id, it := range s.items {
		snap.items[id] = append([]model.OrderItem(nil), it...)
	}
	for ref, p := range s.payments {
		snap.payments[ref] = *p
	}
	return snap
}

func (s *store) restore(snap storeSnapshot) {
	for id, stock := range snap.stock {
		s.products[id].Stock = stock
	}
	s.orders = map[string]*model.Order{}
	for id, o := range snap.orders {
		o := o
		s.orders[id] = &o
	}
	s.items = snap.items
	s.payments = map[string]*model.Payment{}
	for ref, p := range snap.payments {
		p := p
		s.payments[ref] = &p
	}
	s.cart = snap.cart
	s.movements = s.movements[:snap.movements]
}

func (tx rollbackTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := tx.s.snapshot()
	if err := fn(ctx); err != nil {
		tx.s.restore(snap)
		return err
	}
	if tx.s.failCommits > 0 {
		tx.s.failCommits--
		tx.s.restore(snap)
		return errors.New("commit: connection reset")
	}
	return nil
}

type fakeLocker struct {
	held map[string]string
}

func (l *fakeLocker) AcquireLock(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	if _, ok := l.held[key]; ok {
		return false, nil
	}
	l.held[key] = value
	return true, nil
}

func (l *fakeLocker) ReleaseLock(_ context.Context, key, value string) error {
	if l.held[key] == value {
		delete(l.held, key)
	}
	return nil
}

type recordingPublisher struct {
	events []*order.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e *order.Event) error {
	p.events = append(p.events, e)
	return nil
}

type recordingCatalog struct {
	changed [][]string
}

func (c *recordingCatalog) ProductsChanged(_ context.Context, ids []string) {
	c.changed = append(c.changed, ids)
}

// recordingAuthorizer remembers the references it issued so tests can inspect sandbox state.
type recordingAuthorizer struct {
	*payment.SandboxAuthorizer
	refs        []string
	refundCalls int
}

func (a *recordingAuthorizer) Refund(ctx context.Context, ref string, amount decimal.Decimal) error {
	a.refundCalls++
	return a.SandboxAuthorizer.Refund(ctx, ref, amount)
}

func (a *recordingAuthorizer) Authorize(ctx context.Context, req payment.AuthorizeRequest) (*payment.Authorization, error) {
	authz, err := a.SandboxAuthorizer.Authorize(ctx, req)
	if err == nil {
		a.refs = append(a.refs, authz.Reference)
	}
	return authz, err
}

type fixture struct {
	uc        *orderUseCase
	store     *store
	locker    *fakeLocker
	authz     *recordingAuthorizer
	publisher *recordingPublisher
	catalog   *recordingCatalog
}

func newFixture() *fixture {
	s := newStore()
	f := &fixture{
		store:     s,
		locker:    &fakeLocker{held: map[string]string{}},
		authz:     &recordingAuthorizer{SandboxAuthorizer: payment.NewSandboxAuthorizer(false)},
		publisher: &recordingPublisher{},
		catalog:   &recordingCatalog{},
	}
	uc := NewOrderUseCase(Deps{
		Repo:       orderRepo{s},
		Carts:      cartRepo{s},
		Inventory:  inventoryRepo{s},
		Payments:   paymentRepo{s},
		Authorizer: f.authz,
		Tx:         passTx{},
		Locker:     f.locker,
		Publisher:  f.publisher,
		Catalog:    f.catalog,
		Pool:       worker.Inline{},
		Validator:  httpresp.NewValidator(),
		Checkout: config.CheckoutConfig{
			TaxRate: decimal.RequireFromString("0.08"),
			ShippingOptions: []config.ShippingOption{
				{Code: "standard", Name: "Standard Shipping", Cost: decimal.RequireFromString("4.99")},
				{Code: "express", Name: "Express Shipping", Cost: decimal.RequireFromString("12.99")},
			},
		},
		Logger: logger.NewNop(),
	}).(*orderUseCase)
	uc.now = func() time.Time { return testNow }
	f.uc = uc
	return f
}

func checkoutInput(cardNumber string) *dto.PlaceOrderInput {
	return &dto.PlaceOrderInput{
		Shipping: model.ShippingAddress{
			FullName: "Jane Doe",
			Email:    "jane@example.com",
			Address:  "1 Main St",
			City:     "Springfield",
			State:    "IL",
			ZipCode:  "62701",
			Country:  "US",
		},
		ShippingMethod: "standard",
		PaymentMethod:  model.PaymentMethodCard,
		Card:           &payment.Card{Number: cardNumber, Expiry: "12/28", HolderName: "Jane Doe", CVC: "123"},
	}
}
