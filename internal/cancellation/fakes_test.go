package cancellation

import (
	"context"
	"errors"
	"sync"
	"time"

	"kreede/internal/audit"
	"kreede/internal/bookings"
	"kreede/internal/gateway"
	"kreede/internal/refunds"
	"kreede/internal/registrations"
	"kreede/pkg/cache"
	"kreede/pkg/logger"

	"github.com/google/uuid"
)

type fakeBookings struct {
	bookings.Repository
	mu      sync.Mutex
	items   map[uuid.UUID]*bookings.Booking
	applied int
}

func newFakeBookings(items ...*bookings.Booking) *fakeBookings {
	f := &fakeBookings{items: map[uuid.UUID]*bookings.Booking{}}
	for _, b := range items {
		f.items[b.ID] = b
	}
	return f
}

func (f *fakeBookings) FindByIDAcrossVariants(_ context.Context, id uuid.UUID) (*bookings.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.items[id]
	if !ok {
		return nil, bookings.ErrBookingNotFound
	}
	cp := *b
	cp.Slots = append([]bookings.Slot(nil), b.Slots...)
	return &cp, nil
}

func (f *fakeBookings) ApplyCancellation(_ context.Context, id uuid.UUID, _ bookings.Variant, m bookings.Mutation) (*bookings.MutationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.items[id]
	if !ok {
		return nil, bookings.ErrBookingNotFound
	}
	if !b.HasSlots(m.RemoveSlots) {
		return nil, bookings.ErrSlotNotFound
	}
	f.applied++
	result := bookings.Plan(b, m)
	if result.Deleted {
		delete(f.items, id)
	}
	return result, nil
}

func (f *fakeBookings) get(id uuid.UUID) *bookings.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id]
}

type fakeLedger struct {
	refunds.Repository
	mu       sync.Mutex
	records  []*refunds.RefundRecord
	restored map[uuid.UUID]bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{restored: map[uuid.UUID]bool{}}
}

func (f *fakeLedger) Create(_ context.Context, rec *refunds.RefundRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if rec.SlotSignature != "" && r.ReferenceID == rec.ReferenceID && r.SlotSignature == rec.SlotSignature {
			return refunds.ErrDuplicate
		}
	}
	rec.ID = uuid.New()
	cp := *rec
	f.records = append(f.records, &cp)
	return nil
}

func (f *fakeLedger) FindBySignature(_ context.Context, referenceID uuid.UUID, signature string) (*refunds.RefundRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ReferenceID == referenceID && r.SlotSignature == signature {
			cp := *r
			return &cp, nil
		}
	}
	return nil, refunds.ErrRefundNotFound
}

func (f *fakeLedger) MarkCreditRestored(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == id {
			r.MembershipCreditRestored = true
			return nil
		}
	}
	return refunds.ErrRefundNotFound
}

func (f *fakeLedger) all() []*refunds.RefundRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*refunds.RefundRecord(nil), f.records...)
}

type fakeCredits struct {
	mu         sync.Mutex
	restored   map[uuid.UUID]int
	resolveErr error
	resolved   uuid.UUID
}

func newFakeCredits() *fakeCredits {
	return &fakeCredits{restored: map[uuid.UUID]int{}, resolved: uuid.New()}
}

func (f *fakeCredits) ResolveUser(_ context.Context, email, _ string) (uuid.UUID, error) {
	if f.resolveErr != nil {
		return uuid.Nil, f.resolveErr
	}
	if email == "" {
		return uuid.Nil, errors.New("no identity")
	}
	return f.resolved, nil
}

func (f *fakeCredits) RestoreOneCredit(_ context.Context, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restored[userID]++
	return true, nil
}

func (f *fakeCredits) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.restored {
		n += c
	}
	return n
}

// fakeGateway answers CreateRefund with createStatus and then walks polls.
type fakeGateway struct {
	mu           sync.Mutex
	createStatus gateway.Status
	createErr    error
	polls        []gateway.Status
	requests     []gateway.RefundRequest
	pollCount    int
}

func (f *fakeGateway) CreateRefund(_ context.Context, req gateway.RefundRequest) (*gateway.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &gateway.Refund{
		RefundID:        req.RefundID,
		GatewayRefundID: "gw_" + req.RefundID,
		Status:          f.createStatus,
	}, nil
}

func (f *fakeGateway) PollStatus(_ context.Context, _, refundID string) *gateway.Refund {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pollCount++
	status := gateway.StatusPending
	if len(f.polls) > 0 {
		status = f.polls[0]
		f.polls = f.polls[1:]
	}
	return &gateway.Refund{RefundID: refundID, Status: status}
}

type fakeRegistrations struct {
	items     map[uuid.UUID]*registrations.Registration
	cancelled int
}

func (f *fakeRegistrations) GetByID(_ context.Context, id uuid.UUID) (*registrations.Registration, error) {
	r, ok := f.items[id]
	if !ok {
		return nil, registrations.ErrRegistrationNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRegistrations) MarkCancelled(_ context.Context, id uuid.UUID) (bool, error) {
	r, ok := f.items[id]
	if !ok || r.IsCancelled() {
		return false, nil
	}
	r.Status = registrations.StatusCancelled
	f.cancelled++
	return true, nil
}

func (f *fakeRegistrations) Create(_ context.Context, r *registrations.Registration) error {
	f.items[r.ID] = r
	return nil
}

type fakeAudit struct {
	rows []audit.Row
	err  error
}

func (f *fakeAudit) Export(_ context.Context, rows []audit.Row) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeAudit) Close() error { return nil }

type fakeLocker struct {
	err error
}

func (f fakeLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	return func() {}, nil
}

type harness struct {
	bookings      *fakeBookings
	ledger        *fakeLedger
	credits       *fakeCredits
	gateway       *fakeGateway
	registrations *fakeRegistrations
	audit         *fakeAudit
	sleeps        []time.Duration
	locker        cache.Locker

	// client replaces the fake gateway when set
	client gateway.Client
	log    *logger.Logger
}

func newHarness(items ...*bookings.Booking) *harness {
	return &harness{
		bookings:      newFakeBookings(items...),
		ledger:        newFakeLedger(),
		credits:       newFakeCredits(),
		gateway:       &fakeGateway{createStatus: gateway.StatusSuccess},
		registrations: &fakeRegistrations{items: map[uuid.UUID]*registrations.Registration{}},
		audit:         &fakeAudit{},
		locker:        cache.NoopLocker(),
	}
}

func (h *harness) reconciler() Reconciler {
	var gw gateway.Client = h.gateway
	if h.client != nil {
		gw = h.client
	}
	log := h.log
	if log == nil {
		log = logger.Discard()
	}
	return NewReconciler(Deps{
		Bookings:      h.bookings,
		Ledger:        h.ledger,
		Credits:       h.credits,
		Gateway:       gw,
		Registrations: h.registrations,
		Audit:         h.audit,
		Locker:        h.locker,
		Log:           log,
	}, Options{
		PollDelays:      []time.Duration{500 * time.Millisecond, 900 * time.Millisecond, 1300 * time.Millisecond},
		DefaultCurrency: "INR",
		Sleep: func(_ context.Context, d time.Duration) error {
			h.sleeps = append(h.sleeps, d)
			return nil
		},
	})
}

func slots(n int) []bookings.Slot {
	all := []bookings.Slot{
		{CourtID: "c1", Start: "10:00", End: "11:00"},
		{CourtID: "c1", Start: "11:00", End: "12:00"},
		{CourtID: "c2", Start: "18:00", End: "19:00"},
	}
	return append([]bookings.Slot(nil), all[:n]...)
}

func accountBooking(amount float64, method bookings.PaymentMethod, orderID string, n int) *bookings.Booking {
	uid := uuid.New()
	return &bookings.Booking{
		ID:            uuid.New(),
		Variant:       bookings.VariantAccount,
		UserID:        &uid,
		UserEmail:     "player@kreede.in",
		UserName:      "player",
		Date:          time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		Slots:         slots(n),
		Amount:        amount,
		Currency:      "INR",
		PaymentMethod: method,
		Paid:          true,
		OrderID:       orderID,
	}
}

func guestBooking(amount float64, method bookings.PaymentMethod, orderID string, n int) *bookings.Booking {
	return &bookings.Booking{
		ID:            uuid.New(),
		Variant:       bookings.VariantGuest,
		GuestName:     "Walk In",
		GuestPhone:    "9999999999",
		Date:          time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		Slots:         slots(n),
		Amount:        amount,
		Currency:      "INR",
		PaymentMethod: method,
		Paid:          true,
		OrderID:       orderID,
	}
}

func intPtr(i int) *int { return &i }
