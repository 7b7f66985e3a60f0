// Package commit turns a conversation's stored draft into an order and its items.
//
// The store has no multi-statement transactions, so every write the commit makes is
// paired with an undo. Any failure after the order row exists replays the undos; an
// order without all of its items is never left standing unless the undo itself fails,
// in which case the order is handed to the cleanup queue.
package commit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alebbueno/pedidos-saas-sub000/internal/address"
	"github.com/alebbueno/pedidos-saas-sub000/internal/aws"
	"github.com/alebbueno/pedidos-saas-sub000/internal/catalog"
	"github.com/alebbueno/pedidos-saas-sub000/internal/conversations"
	"github.com/alebbueno/pedidos-saas-sub000/internal/customers"
	"github.com/alebbueno/pedidos-saas-sub000/internal/draft"
	"github.com/alebbueno/pedidos-saas-sub000/internal/idempotency"
	"github.com/alebbueno/pedidos-saas-sub000/internal/metrics"
	"github.com/alebbueno/pedidos-saas-sub000/internal/orders"
	"github.com/alebbueno/pedidos-saas-sub000/internal/validation"
)

type DraftReader interface {
	Read(ctx context.Context, conversationID string) (*draft.Draft, error)
}

type ConversationUpdater interface {
	BindCustomer(ctx context.Context, conversationID, customerID string) error
	Complete(ctx context.Context, conversationID string) error
}

type ProductResolver interface {
	Resolve(ctx context.Context, restaurantID, ref string) (catalog.Resolution, error)
}

type CustomerStore interface {
	FindByPhone(ctx context.Context, restaurantID, phone string) (*customers.Customer, error)
	Create(ctx context.Context, c customers.Customer) (*customers.Customer, error)
	Update(ctx context.Context, c customers.Customer) error
	CreateAddress(ctx context.Context, a customers.Address) (*customers.Address, error)
}

type OrderStore interface {
	Create(ctx context.Context, order orders.Order) (*orders.Order, error)
	Delete(ctx context.Context, orderID string) error
	RecentForRestaurant(ctx context.Context, restaurantID string, scope orders.Scope, since time.Time) (*orders.Order, error)
	PutItems(ctx context.Context, items []orders.Item) (int, error)
	DeleteItems(ctx context.Context, itemIDs []string) error
}

type FeeSource interface {
	DeliveryFee(ctx context.Context, restaurantID string) (float64, error)
}

type KeyStore interface {
	CreateIfNotExists(ctx context.Context, key, conversationID string) (bool, error)
	Get(ctx context.Context, key string) (*idempotency.Record, error)
	MarkDone(ctx context.Context, key, orderID, orderNumber string) error
	Release(ctx context.Context, key string) error
}

type CleanupPublisher interface {
	PublishCleanup(ctx context.Context, msg aws.CleanupMessage) error
}

// Deps are the collaborators of an Engine. Cleanup and Metrics are optional.
type Deps struct {
	Drafts        DraftReader
	Conversations ConversationUpdater
	Products      ProductResolver
	Customers     CustomerStore
	Orders        OrderStore
	Fees          FeeSource
	Keys          KeyStore
	Cleanup       CleanupPublisher
	Metrics       metrics.Recorder
}

type Options struct {
	DuplicateWindow   time.Duration
	OrderNumberLength int
}

// Request identifies the conversation to commit. CustomerID is the customer already bound
// to the conversation, if any. Phone is the raw conversation phone.
type Request struct {
	RestaurantID   string
	ConversationID string
	CustomerID     string
	Phone          string
	IdempotencyKey string
}

// Result describes the committed order. Duplicate is set when an earlier commit was
// returned instead of creating a new order.
type Result struct {
	OrderID     string
	OrderNumber string
	CustomerID  string
	Duplicate   bool
	Total       float64
}

type Engine struct {
	deps     Deps
	opts     Options
	validate *validatorv10.Validate
	logger   *zap.Logger
	nowFunc  func() time.Time
}

func NewEngine(deps Deps, opts Options, logger *zap.Logger) *Engine {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	if opts.DuplicateWindow <= 0 {
		opts.DuplicateWindow = 10 * time.Second
	}
	if opts.OrderNumberLength <= 0 {
		opts.OrderNumberLength = 8
	}
	return &Engine{
		deps:     deps,
		opts:     opts,
		validate: validation.New(),
		logger:   logger.Named("commit"),
		nowFunc:  time.Now,
	}
}

// OrderNumber is the display form of an order id: its first n characters, upper-cased.
func OrderNumber(orderID string, n int) string {
	if n > len(orderID) {
		n = len(orderID)
	}
	return strings.ToUpper(orderID[:n])
}

// attempt carries the state of one Commit call.
type attempt struct {
	req     Request
	sg      *saga
	orderID string
	logger  *zap.Logger
}

// Commit runs the full commit of the conversation's stored draft.
func (e *Engine) Commit(ctx context.Context, req Request) (*Result, error) {
	a := &attempt{
		req: req,
		logger: e.logger.With(
			zap.String("restaurant_id", req.RestaurantID),
			zap.String("conversation_id", req.ConversationID)),
	}
	a.sg = &saga{logger: a.logger}

	var scopedKey string
	if req.IdempotencyKey != "" {
		scopedKey = req.RestaurantID + "#" + req.IdempotencyKey
		res, err := e.claimKey(ctx, a, scopedKey)
		if err != nil || res != nil {
			return res, err
		}
	}

	d, err := e.deps.Drafts.Read(ctx, req.ConversationID)
	if err != nil {
		if errors.Is(err, conversations.ErrNotFound) {
			return e.fail(ctx, a, CodeConversationNotFound, err)
		}
		return e.fail(ctx, a, CodeStoreUnavailable, fmt.Errorf("read draft: %w", err))
	}

	// Without a key the time window is the only guard. A confirm repeated after a
	// successful commit finds the draft already cleared, so the guard runs before no_items.
	if scopedKey == "" && (d == nil || draft.Validate(d) == "") {
		dup, err := e.recentOrder(ctx, req)
		if err != nil {
			return e.fail(ctx, a, CodeStoreUnavailable, err)
		}
		if dup != nil {
			a.logger.Info("duplicate commit absorbed", zap.String("order_id", dup.OrderID))
			e.deps.Metrics.CommitDuplicate(ctx, req.RestaurantID)
			return &Result{
				OrderID:     dup.OrderID,
				OrderNumber: OrderNumber(dup.OrderID, e.opts.OrderNumberLength),
				CustomerID:  dup.CustomerID,
				Duplicate:   true,
				Total:       dup.TotalAmount,
			}, nil
		}
	}

	if code := draft.Validate(d); code != "" {
		return e.fail(ctx, a, code, nil)
	}
	// The stored draft is re-checked field by field: quantities, prices and enums.
	if err := e.validate.Struct(*d); err != nil {
		return e.fail(ctx, a, CodeInvalidDraft, fmt.Errorf("draft fields: %s", validation.Summary(err)))
	}

	customerID, err := e.resolveCustomer(ctx, a, d)
	if err != nil {
		return e.fail(ctx, a, CodeCustomerResolutionFailed, err)
	}

	fee, err := e.deliveryFee(ctx, req.RestaurantID, d)
	if err != nil {
		return e.fail(ctx, a, CodeStoreUnavailable, err)
	}
	total := d.Subtotal() + fee

	a.orderID = uuid.NewString()
	orderNumber := OrderNumber(a.orderID, e.opts.OrderNumberLength)
	order := orders.Order{
		OrderID:         a.orderID,
		RestaurantID:    req.RestaurantID,
		CustomerID:      customerID,
		ConversationID:  req.ConversationID,
		Status:          orders.StatusNew,
		TotalAmount:     total,
		DeliveryFee:     fee,
		DeliveryType:    d.DeliveryType,
		DeliveryAddress: d.DeliveryAddress,
		PaymentMethod:   d.PaymentMethod,
		Notes:           d.Notes,
		IdempotencyKey:  req.IdempotencyKey,
		CreatedAt:       e.nowFunc().UTC(),
	}
	if _, err := e.deps.Orders.Create(ctx, order); err != nil {
		a.orderID = ""
		return e.fail(ctx, a, CodeOrderCreationFailed, err)
	}
	orderID := a.orderID
	a.sg.record("delete order", true, func(ctx context.Context) error {
		return e.deps.Orders.Delete(ctx, orderID)
	})

	items := make([]orders.Item, 0, len(d.Items))
	for _, it := range d.Items {
		res, err := e.deps.Products.Resolve(ctx, req.RestaurantID, it.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, catalog.ErrUnresolved) {
				return e.fail(ctx, a, CodeProductConversionFailed, err)
			}
			return e.fail(ctx, a, CodeStoreUnavailable, fmt.Errorf("resolve product: %w", err))
		}
		name := it.ProductName
		if name == "" {
			name = res.Name
		}
		items = append(items, orders.Item{
			OrderItemID:     uuid.NewString(),
			OrderID:         orderID,
			ProductID:       res.ProductID,
			ProductName:     name,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			TotalPrice:      it.UnitPrice * float64(it.Quantity),
			OptionsSelected: it.Options,
		})
	}

	itemIDs := make([]string, len(items))
	for i, it := range items {
		itemIDs[i] = it.OrderItemID
	}
	a.sg.record("delete order items", true, func(ctx context.Context) error {
		return e.deps.Orders.DeleteItems(ctx, itemIDs)
	})
	written, err := e.deps.Orders.PutItems(ctx, items)
	if err != nil {
		return e.fail(ctx, a, CodeItemsNotPersisted, err)
	}
	if written < len(items) {
		return e.fail(ctx, a, CodeItemsNotPersisted, fmt.Errorf("%d of %d items written", written, len(items)))
	}

	// The order is complete from here on; later failures are logged, never compensated.
	if scopedKey != "" {
		if err := e.deps.Keys.MarkDone(ctx, scopedKey, orderID, orderNumber); err != nil {
			a.logger.Warn("mark idempotency key done failed", zap.String("order_id", orderID), zap.Error(err))
		}
	}
	if err := e.deps.Conversations.Complete(ctx, req.ConversationID); err != nil {
		a.logger.Warn("complete conversation failed", zap.String("order_id", orderID), zap.Error(err))
	}

	a.logger.Info("order committed",
		zap.String("order_id", orderID),
		zap.String("customer_id", customerID),
		zap.Int("items", len(items)),
		zap.Float64("total", total))
	e.deps.Metrics.CommitSucceeded(ctx, req.RestaurantID)

	return &Result{
		OrderID:     orderID,
		OrderNumber: orderNumber,
		CustomerID:  customerID,
		Total:       total,
	}, nil
}

// claimKey returns a non-nil Result when the key already belongs to a finished commit.
func (e *Engine) claimKey(ctx context.Context, a *attempt, key string) (*Result, error) {
	created, err := e.deps.Keys.CreateIfNotExists(ctx, key, a.req.ConversationID)
	if err != nil {
		return e.fail(ctx, a, CodeStoreUnavailable, fmt.Errorf("claim idempotency key: %w", err))
	}
	if created {
		a.sg.record("release idempotency key", false, func(ctx context.Context) error {
			return e.deps.Keys.Release(ctx, key)
		})
		return nil, nil
	}

	rec, err := e.deps.Keys.Get(ctx, key)
	if err != nil {
		return e.fail(ctx, a, CodeStoreUnavailable, fmt.Errorf("read idempotency key: %w", err))
	}
	if rec == nil || rec.Status != idempotency.StatusDone {
		return e.fail(ctx, a, CodeCommitInProgress, nil)
	}

	a.logger.Info("idempotency key replayed", zap.String("order_id", rec.OrderID))
	e.deps.Metrics.CommitDuplicate(ctx, a.req.RestaurantID)
	return &Result{
		OrderID:     rec.OrderID,
		OrderNumber: rec.OrderNumber,
		CustomerID:  a.req.CustomerID,
		Duplicate:   true,
	}, nil
}

// recentOrder looks for an order this same customer placed within the duplicate window.
// An unbound conversation is matched through its phone's existing customer, or else only
// against orders of the conversation itself.
func (e *Engine) recentOrder(ctx context.Context, req Request) (*orders.Order, error) {
	scope := orders.Scope{CustomerID: req.CustomerID}
	if scope.CustomerID == "" {
		if phone := customers.NormalizePhone(req.Phone); phone != "" {
			c, err := e.deps.Customers.FindByPhone(ctx, req.RestaurantID, phone)
			if err != nil {
				return nil, fmt.Errorf("duplicate guard: find customer: %w", err)
			}
			if c != nil {
				scope.CustomerID = c.CustomerID
			}
		}
	}
	if scope.CustomerID == "" {
		scope.ConversationID = req.ConversationID
	}

	since := e.nowFunc().Add(-e.opts.DuplicateWindow)
	o, err := e.deps.Orders.RecentForRestaurant(ctx, req.RestaurantID, scope, since)
	if err != nil {
		return nil, fmt.Errorf("duplicate guard: %w", err)
	}
	return o, nil
}

// resolveCustomer returns the bound customer, or finds or creates one from the
// conversation phone. Only a freshly created customer gets the draft address saved.
func (e *Engine) resolveCustomer(ctx context.Context, a *attempt, d *draft.Draft) (string, error) {
	if a.req.CustomerID != "" {
		return a.req.CustomerID, nil
	}

	phone := customers.NormalizePhone(a.req.Phone)
	if phone == "" {
		return "", fmt.Errorf("conversation phone %q has no digits", a.req.Phone)
	}

	existing, err := e.deps.Customers.FindByPhone(ctx, a.req.RestaurantID, phone)
	if err != nil {
		return "", err
	}

	var customerID string
	if existing != nil {
		customerID = existing.CustomerID
		update := *existing
		changed := false
		if existing.Name == customers.DefaultName && d.CustomerName != "" {
			update.Name = d.CustomerName
			changed = true
		}
		if existing.Email == "" && d.CustomerEmail != "" {
			update.Email = d.CustomerEmail
			changed = true
		}
		if changed {
			if err := e.deps.Customers.Update(ctx, update); err != nil {
				a.logger.Warn("update customer failed", zap.String("customer_id", customerID), zap.Error(err))
			}
		}
	} else {
		created, err := e.deps.Customers.Create(ctx, customers.Customer{
			RestaurantID: a.req.RestaurantID,
			Phone:        phone,
			Name:         d.CustomerName,
			Email:        d.CustomerEmail,
		})
		if err != nil {
			return "", err
		}
		customerID = created.CustomerID
		a.logger.Info("customer created", zap.String("customer_id", customerID))

		if d.IsDelivery() && strings.TrimSpace(d.DeliveryAddress) != "" {
			e.saveDefaultAddress(ctx, a, customerID, d.DeliveryAddress)
		}
	}

	if err := e.deps.Conversations.BindCustomer(ctx, a.req.ConversationID, customerID); err != nil {
		a.logger.Warn("bind customer failed", zap.String("customer_id", customerID), zap.Error(err))
	}
	return customerID, nil
}

func (e *Engine) saveDefaultAddress(ctx context.Context, a *attempt, customerID, raw string) {
	p := address.Parse(raw)
	_, err := e.deps.Customers.CreateAddress(ctx, customers.Address{
		CustomerID:   customerID,
		Street:       p.Street,
		Number:       p.Number,
		Neighborhood: p.Neighborhood,
		City:         p.City,
		Complement:   p.Complement,
		IsDefault:    true,
	})
	if err != nil {
		a.logger.Warn("save default address failed", zap.String("customer_id", customerID), zap.Error(err))
	}
}

func (e *Engine) deliveryFee(ctx context.Context, restaurantID string, d *draft.Draft) (float64, error) {
	if !d.IsDelivery() {
		return 0, nil
	}
	if d.DeliveryFee != nil {
		return *d.DeliveryFee, nil
	}
	fee, err := e.deps.Fees.DeliveryFee(ctx, restaurantID)
	if err != nil {
		return 0, fmt.Errorf("delivery fee: %w", err)
	}
	return fee, nil
}

// fail unwinds the attempt and returns a terminal *Error.
func (e *Engine) fail(ctx context.Context, a *attempt, code string, cause error) (*Result, error) {
	a.logger.Warn("commit failed", zap.String("code", code), zap.Error(cause))

	undoCtx := context.WithoutCancel(ctx)
	if orphaned := a.sg.compensate(undoCtx); orphaned && a.orderID != "" {
		e.publishCleanup(undoCtx, a, code)
	}
	e.deps.Metrics.CommitFailed(ctx, a.req.RestaurantID, code)
	return nil, &Error{Code: code, Err: cause}
}

func (e *Engine) publishCleanup(ctx context.Context, a *attempt, reason string) {
	if e.deps.Cleanup == nil {
		a.logger.Error("orphan order left behind, no cleanup queue", zap.String("order_id", a.orderID))
		return
	}
	err := e.deps.Cleanup.PublishCleanup(ctx, aws.CleanupMessage{
		OrderID:        a.orderID,
		RestaurantID:   a.req.RestaurantID,
		ConversationID: a.req.ConversationID,
		Reason:         reason,
	})
	if err != nil {
		a.logger.Error("publish cleanup failed", zap.String("order_id", a.orderID), zap.Error(err))
	}
}
