package commit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alebbueno/pedidos-saas-sub000/internal/aws"
	"github.com/alebbueno/pedidos-saas-sub000/internal/catalog"
	"github.com/alebbueno/pedidos-saas-sub000/internal/conversations"
	"github.com/alebbueno/pedidos-saas-sub000/internal/customers"
	"github.com/alebbueno/pedidos-saas-sub000/internal/draft"
	"github.com/alebbueno/pedidos-saas-sub000/internal/idempotency"
	"github.com/alebbueno/pedidos-saas-sub000/internal/orders"
)

// fakeConversations holds drafts, bound customers and statuses per conversation.
type fakeConversations struct {
	mu        sync.Mutex
	drafts    map[string]*draft.Draft
	customers map[string]string
	status    map[string]string
	readErr   error
}

func newFakeConversations() *fakeConversations {
	return &fakeConversations{
		drafts:    map[string]*draft.Draft{},
		customers: map[string]string{},
		status:    map[string]string{},
	}
}

func (f *fakeConversations) start(id string, d *draft.Draft) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts[id] = d
	f.status[id] = conversations.StatusActive
}

func (f *fakeConversations) Read(ctx context.Context, id string) (*draft.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	if _, ok := f.status[id]; !ok {
		return nil, conversations.ErrNotFound
	}
	return f.drafts[id], nil
}

func (f *fakeConversations) BindCustomer(ctx context.Context, id, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customers[id] = customerID
	return nil
}

func (f *fakeConversations) Complete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts[id] = nil
	f.status[id] = conversations.StatusCompleted
	return nil
}

// fakeResolver resolves references from a fixed table.
type fakeResolver struct {
	refs map[string]catalog.Resolution
	err  error
}

func (f *fakeResolver) Resolve(ctx context.Context, restaurantID, ref string) (catalog.Resolution, error) {
	if f.err != nil {
		return catalog.Resolution{}, f.err
	}
	res, ok := f.refs[ref]
	if !ok {
		return catalog.Resolution{}, fmt.Errorf("%w: %q", catalog.ErrUnresolved, ref)
	}
	return res, nil
}

type fakeCustomers struct {
	mu        sync.Mutex
	customers []customers.Customer
	addresses []customers.Address
	updates   []customers.Customer
	findErr   error
}

func (f *fakeCustomers) FindByPhone(ctx context.Context, restaurantID, phone string) (*customers.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, c := range f.customers {
		if c.RestaurantID == restaurantID && c.Phone == phone {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeCustomers) Create(ctx context.Context, c customers.Customer) (*customers.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.CustomerID = fmt.Sprintf("cust-%d", len(f.customers)+1)
	if c.Name == "" {
		c.Name = customers.DefaultName
	}
	f.customers = append(f.customers, c)
	return &c, nil
}

func (f *fakeCustomers) Update(ctx context.Context, c customers.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, c)
	for i := range f.customers {
		if f.customers[i].CustomerID == c.CustomerID {
			f.customers[i] = c
		}
	}
	return nil
}

func (f *fakeCustomers) CreateAddress(ctx context.Context, a customers.Address) (*customers.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.AddressID = fmt.Sprintf("addr-%d", len(f.addresses)+1)
	f.addresses = append(f.addresses, a)
	return &a, nil
}

// fakeOrders keeps orders and items in maps. dropItems leaves that many items of each
// PutItems call unwritten.
type fakeOrders struct {
	mu          sync.Mutex
	orders      map[string]orders.Order
	items       map[string]orders.Item
	createCalls int
	createErr   error
	putErr      error
	dropItems   int
	deleteErr   error
	recentErr   error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[string]orders.Order{}, items: map[string]orders.Item{}}
}

func (f *fakeOrders) Create(ctx context.Context, o orders.Order) (*orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.orders[o.OrderID] = o
	return &o, nil
}

func (f *fakeOrders) Delete(ctx context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.orders, orderID)
	return nil
}

func (f *fakeOrders) RecentForRestaurant(ctx context.Context, restaurantID string, scope orders.Scope, since time.Time) (*orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	if scope.CustomerID == "" && scope.ConversationID == "" {
		return nil, orders.ErrUnscoped
	}
	var found []orders.Order
	for _, o := range f.orders {
		if o.RestaurantID != restaurantID || o.CreatedAt.Before(since) {
			continue
		}
		if scope.CustomerID != "" && o.CustomerID != scope.CustomerID {
			continue
		}
		if scope.ConversationID != "" && o.ConversationID != scope.ConversationID {
			continue
		}
		found = append(found, o)
	}
	if len(found) == 0 {
		return nil, nil
	}
	sort.Slice(found, func(i, j int) bool { return found[i].CreatedAt.After(found[j].CreatedAt) })
	return &found[0], nil
}

func (f *fakeOrders) PutItems(ctx context.Context, items []orders.Item) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return 0, f.putErr
	}
	n := len(items) - f.dropItems
	if n < 0 {
		n = 0
	}
	for _, it := range items[:n] {
		f.items[it.OrderItemID] = it
	}
	return n, nil
}

func (f *fakeOrders) DeleteItems(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for _, id := range ids {
		delete(f.items, id)
	}
	return nil
}

func (f *fakeOrders) itemsOf(orderID string) []orders.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []orders.Item
	for _, it := range f.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out
}

type fakeFees struct {
	fee   float64
	err   error
	calls int
}

func (f *fakeFees) DeliveryFee(ctx context.Context, restaurantID string) (float64, error) {
	f.calls++
	return f.fee, f.err
}

type fakeKeys struct {
	mu      sync.Mutex
	records map[string]*idempotency.Record
}

func newFakeKeys() *fakeKeys {
	return &fakeKeys{records: map[string]*idempotency.Record{}}
}

func (f *fakeKeys) CreateIfNotExists(ctx context.Context, key, conversationID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[key]; ok {
		return false, nil
	}
	f.records[key] = &idempotency.Record{IdempotencyKey: key, Status: idempotency.StatusInProgress, ConversationID: conversationID}
	return true, nil
}

func (f *fakeKeys) Get(ctx context.Context, key string) (*idempotency.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[key]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeKeys) MarkDone(ctx context.Context, key, orderID, orderNumber string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[key]
	if !ok || rec.Status != idempotency.StatusInProgress {
		return idempotency.ErrConditionFailed
	}
	rec.Status = idempotency.StatusDone
	rec.OrderID = orderID
	rec.OrderNumber = orderNumber
	return nil
}

func (f *fakeKeys) Release(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[key]
	if !ok || rec.Status != idempotency.StatusInProgress {
		return idempotency.ErrConditionFailed
	}
	delete(f.records, key)
	return nil
}

type fakePublisher struct {
	messages []aws.CleanupMessage
	err      error
}

func (f *fakePublisher) PublishCleanup(ctx context.Context, msg aws.CleanupMessage) error {
	f.messages = append(f.messages, msg)
	return f.err
}

type fakeMetrics struct {
	succeeded int
	duplicate int
	failed    []string
}

func (f *fakeMetrics) CommitSucceeded(ctx context.Context, restaurantID string) { f.succeeded++ }
func (f *fakeMetrics) CommitDuplicate(ctx context.Context, restaurantID string) { f.duplicate++ }
func (f *fakeMetrics) CommitFailed(ctx context.Context, restaurantID, code string) {
	f.failed = append(f.failed, code)
}

var errBoom = errors.New("boom")
