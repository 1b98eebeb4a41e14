package payments

import (
	"context"
	"sync"

	"temple-services/internal/domain/billing"
	"temple-services/internal/domain/bookings"
	"temple-services/internal/domain/subscriptions"
	"temple-services/internal/infra/phonepe"
	"temple-services/internal/repository"
)

// memStore mimics the primary-key guarantees of the real tables.
type memStore struct {
	mu            sync.Mutex
	pending       map[string]*billing.PendingPayment
	bookings      map[string]*bookings.Booking
	subscriptions map[string]*subscriptions.Subscription
	createErr     error
}

func newMemStore() *memStore {
	return &memStore{
		pending:       map[string]*billing.PendingPayment{},
		bookings:      map[string]*bookings.Booking{},
		subscriptions: map[string]*subscriptions.Subscription{},
	}
}

func (m *memStore) CreatePending(_ context.Context, p *billing.PendingPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.pending[p.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *p
	m.pending[p.ID] = &cp
	return nil
}

func (m *memStore) FindPending(_ context.Context, id string) (*billing.PendingPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pending[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) MarkPending(_ context.Context, id string, status billing.PaymentStatus, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pending[id]; ok && p.Status != billing.StatusSettled {
		p.Status = status
		p.ProviderState = state
	}
	return nil
}

func (m *memStore) SettleBooking(_ context.Context, b *bookings.Booking, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[b.ID]; ok {
		return repository.ErrDuplicate
	}
	m.bookings[b.ID] = b
	m.markSettled(b.ID, state)
	return nil
}

func (m *memStore) SettleSubscription(_ context.Context, sub *subscriptions.Subscription, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscriptions[sub.ID]; ok {
		return repository.ErrDuplicate
	}
	m.subscriptions[sub.ID] = sub
	m.markSettled(sub.ID, state)
	return nil
}

func (m *memStore) markSettled(id, state string) {
	if p, ok := m.pending[id]; ok {
		p.Status = billing.StatusSettled
		p.ProviderState = state
	}
}

func (m *memStore) FindBooking(_ context.Context, id string) (*bookings.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return b, nil
}

func (m *memStore) FindSubscription(_ context.Context, id string) (*subscriptions.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subscriptions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

type fakeRazorpay struct {
	calls   int
	orderID string
	err     error
	valid   bool
}

func (f *fakeRazorpay) KeyID() string { return "rzp_test_key" }

func (f *fakeRazorpay) CreateOrder(_ context.Context, _ int64) (string, error) {
	f.calls++
	return f.orderID, f.err
}

func (f *fakeRazorpay) VerifySignature(_, _, _ string) bool { return f.valid }

type fakePhonePe struct {
	payReq      phonepe.PayRequest
	payURL      string
	payErr      error
	status      *phonepe.StatusResult
	statusErr   error
	statusCalls int
	callback    *phonepe.StatusResult
	callbackErr error
}

func (f *fakePhonePe) Pay(_ context.Context, req phonepe.PayRequest) (string, error) {
	f.payReq = req
	return f.payURL, f.payErr
}

func (f *fakePhonePe) Status(_ context.Context, _ string) (*phonepe.StatusResult, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	cp := *f.status
	return &cp, nil
}

func (f *fakePhonePe) VerifyCallback(_ string, _ []byte) (*phonepe.StatusResult, error) {
	return f.callback, f.callbackErr
}

type published struct {
	key string
	v   any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (f *fakePublisher) PublishJSON(_ context.Context, key string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{key: key, v: v})
	return nil
}

func (f *fakePublisher) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.key)
	}
	return out
}
