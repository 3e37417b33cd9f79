package cancellation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kreede/internal/audit"
	"kreede/internal/bookings"
	"kreede/internal/gateway"
	"kreede/internal/refunds"
	"kreede/internal/registrations"
	"kreede/internal/shared/apperror"
	"kreede/internal/shared/config"
	"kreede/internal/shared/constants"
	"kreede/pkg/cache"
	"kreede/pkg/logger"
	"kreede/pkg/money"

	"github.com/google/uuid"
)

const auditTimeout = 3 * time.Second

// Reconciler cancels slots, bookings and event registrations, moving money
// and membership credits exactly once per cancellation.
type Reconciler interface {
	CancelSlot(ctx context.Context, bookingID uuid.UUID, sel SlotSelector, meta Meta) (*Outcome, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, meta Meta) (*Outcome, error)
	CancelRegistration(ctx context.Context, registrationID uuid.UUID, meta Meta) (*Outcome, error)
}

// Meta is the operator context of a request.
type Meta struct {
	Operator string
	Reason   string
}

// CreditService is the part of the membership service cancellation uses.
type CreditService interface {
	ResolveUser(ctx context.Context, email, usernameHint string) (uuid.UUID, error)
	RestoreOneCredit(ctx context.Context, userID uuid.UUID) (bool, error)
}

type Deps struct {
	Bookings      bookings.Repository
	Ledger        refunds.Repository
	Credits       CreditService
	Gateway       gateway.Client
	Registrations registrations.Repository
	Audit         audit.Exporter
	Locker        cache.Locker
	Log           *logger.Logger
}

type Options struct {
	// PollDelays is the wait before each gateway status poll.
	PollDelays      []time.Duration
	LockTTL         time.Duration
	DefaultCurrency string

	// Sleep and Now are replaceable for tests.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// OptionsFromConfig maps the reconcile section of the config.
func OptionsFromConfig(cfg config.ReconcileConfig) Options {
	return Options{
		PollDelays:      cfg.PollDelays,
		LockTTL:         cfg.LockTTL,
		DefaultCurrency: cfg.DefaultCurrency,
	}
}

type reconciler struct {
	bookings      bookings.Repository
	ledger        refunds.Repository
	credits       CreditService
	gateway       gateway.Client
	registrations registrations.Repository
	audit         audit.Exporter
	locker        cache.Locker
	log           *logger.Logger
	opts          Options
}

func NewReconciler(deps Deps, opts Options) Reconciler {
	if opts.PollDelays == nil {
		opts.PollDelays = config.DefaultPollDelays
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "INR"
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Audit == nil {
		deps.Audit = audit.NoopExporter()
	}
	if deps.Locker == nil {
		deps.Locker = cache.NoopLocker()
	}
	if deps.Log == nil {
		deps.Log = logger.GetDefault()
	}
	return &reconciler{
		bookings:      deps.Bookings,
		ledger:        deps.Ledger,
		credits:       deps.Credits,
		gateway:       deps.Gateway,
		registrations: deps.Registrations,
		audit:         deps.Audit,
		locker:        deps.Locker,
		log:           deps.Log,
		opts:          opts,
	}
}

func (r *reconciler) CancelSlot(ctx context.Context, bookingID uuid.UUID, sel SlotSelector, meta Meta) (*Outcome, error) {
	release, err := r.lock(ctx, constants.BookingLockKey(bookingID.String()))
	if err != nil {
		return nil, err
	}
	defer release()

	booking, err := r.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	idx := ResolveSlot(booking, sel)
	if idx < 0 {
		return nil, apperror.NotFound("slot not found in booking")
	}
	slot := booking.Slots[idx]
	slotsBefore := len(booking.Slots)
	path := Classify(booking)
	shareCents := SlotShareCents(booking.Amount, slotsBefore)
	log := r.log.WithBooking(bookingID.String(), string(booking.Variant))

	rec := r.baseRecord(booking, refunds.KindSlotCancel, slot.Signature(), meta, "slot cancelled by admin")
	rec.Metadata.Slot = &slot
	rec.Metadata.TotalSlotsBefore = slotsBefore

	out := &Outcome{
		BookingID:      bookingID.String(),
		Path:           path,
		Currency:       rec.Currency,
		CancelledSlots: []bookings.Slot{slot},
	}
	mutation := bookings.Mutation{RemoveSlots: []bookings.Slot{slot}}

	switch path {
	case PathMembership:
		saved, restored, dup, err := r.settleMembership(ctx, booking, rec, log)
		if err != nil {
			return nil, err
		}
		out.addRecord(saved, dup)
		if restored {
			out.CreditsRestored++
		}
		out.RefundStatus = refunds.StatusNoRefundRequired

	case PathNoGateway:
		saved, dup, err := r.settleNoGateway(ctx, rec, shareCents)
		if err != nil {
			return nil, err
		}
		out.addRecord(saved, dup)
		out.Refunded = saved.Amount
		out.RefundStatus = saved.Status
		mutation.DecrementBy = saved.Amount

	case PathGatewayPaid:
		saved, dup, err := r.settleGateway(ctx, booking.OrderID, rec, shareCents, log)
		if err != nil {
			return nil, err
		}
		out.addRecord(saved, dup)
		out.Refunded = saved.Amount
		out.RefundStatus = saved.Status
		mutation.DecrementBy = saved.Amount
	}

	result, err := r.bookings.ApplyCancellation(ctx, bookingID, booking.Variant, mutation)
	if err != nil {
		return nil, mutationError(err)
	}
	out.Deleted = result.Deleted
	out.RemainingSlots = result.RemainingSlots
	out.RemainingAmount = result.RemainingAmount

	r.export(ctx, booking, path, refunds.KindSlotCancel, []bookings.Slot{slot}, []int64{money.ToCents(out.Refunded)}, out.RefundStatus, meta)
	log.LogSlotCancelled(ctx, bookingID.String(), slot.Signature(), out.Refunded, string(out.RefundStatus))
	return out, nil
}

func (r *reconciler) CancelBooking(ctx context.Context, bookingID uuid.UUID, meta Meta) (*Outcome, error) {
	release, err := r.lock(ctx, constants.BookingLockKey(bookingID.String()))
	if err != nil {
		return nil, err
	}
	defer release()

	booking, err := r.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	path := Classify(booking)
	slots := append([]bookings.Slot(nil), booking.Slots...)
	totalCents := money.ToCents(booking.Amount)
	log := r.log.WithBooking(bookingID.String(), string(booking.Variant))

	out := &Outcome{
		BookingID:      bookingID.String(),
		Path:           path,
		Currency:       r.currency(booking.Currency),
		CancelledSlots: slots,
	}

	switch path {
	case PathMembership:
		// One ledger row and one credit per slot, keyed by slot signature.
		for i := range slots {
			slot := slots[i]
			rec := r.baseRecord(booking, refunds.KindBookingCancel, slot.Signature(), meta, "booking cancelled by admin")
			rec.Metadata.Slot = &slot
			rec.Metadata.TotalSlotsBefore = len(slots)

			saved, restored, dup, err := r.settleMembership(ctx, booking, rec, log)
			if err != nil {
				return nil, err
			}
			out.addRecord(saved, dup)
			if restored {
				out.CreditsRestored++
			}
		}
		out.RefundStatus = refunds.StatusNoRefundRequired

	case PathNoGateway, PathGatewayPaid:
		rec := r.baseRecord(booking, refunds.KindBookingCancel, refunds.WholeBookingSignature, meta, "booking cancelled by admin")
		rec.Metadata.Slots = slots
		rec.Metadata.TotalSlotsBefore = len(slots)

		var (
			saved *refunds.RefundRecord
			dup   bool
		)
		if path == PathNoGateway {
			saved, dup, err = r.settleNoGateway(ctx, rec, totalCents)
		} else {
			saved, dup, err = r.settleGateway(ctx, booking.OrderID, rec, totalCents, log)
		}
		if err != nil {
			return nil, err
		}
		out.addRecord(saved, dup)
		out.Refunded = saved.Amount
		out.RefundStatus = saved.Status
	}

	if _, err := r.bookings.ApplyCancellation(ctx, bookingID, booking.Variant, bookings.Mutation{
		DecrementBy: out.Refunded,
		DeleteAll:   true,
	}); err != nil {
		return nil, mutationError(err)
	}
	out.Deleted = true

	r.export(ctx, booking, path, refunds.KindBookingCancel, slots, splitCents(money.ToCents(out.Refunded), len(slots)), out.RefundStatus, meta)
	log.LogBookingCancelled(ctx, bookingID.String(), out.Refunded, string(out.RefundStatus))
	return out, nil
}

// settleMembership writes the NO_REFUND_REQUIRED row for one slot and
// restores one credit. An existing row for the slot short-circuits both.
func (r *reconciler) settleMembership(ctx context.Context, booking *bookings.Booking, rec refunds.RefundRecord, log *logger.Logger) (*refunds.RefundRecord, bool, bool, error) {
	existing, err := r.findExisting(ctx, rec.ReferenceID, rec.SlotSignature)
	if err != nil {
		return nil, false, false, err
	}
	if existing != nil {
		return existing, false, true, nil
	}

	rec.Amount = 0
	rec.Gateway = refunds.GatewayNone
	rec.Status = refunds.StatusNoRefundRequired
	rec.StatusDescription = "membership credit booking"

	saved, dup, err := r.insert(ctx, &rec)
	if err != nil || dup {
		return saved, false, dup, err
	}

	restored := r.restoreCredit(ctx, booking, saved, log)
	return saved, restored, false, nil
}

func (r *reconciler) settleNoGateway(ctx context.Context, rec refunds.RefundRecord, cents int64) (*refunds.RefundRecord, bool, error) {
	if cents < 0 {
		cents = 0
	}
	rec.Amount = money.FromCents(cents)
	rec.Gateway = refunds.GatewayNone
	rec.Status = refunds.StatusNoRefundRequired
	rec.StatusDescription = "no gateway refund for this payment"
	return r.insert(ctx, &rec)
}

// settleGateway refunds through the gateway and writes the SUCCESS row. It
// fails closed: unless the gateway confirms SUCCESS nothing is written.
func (r *reconciler) settleGateway(ctx context.Context, orderID string, rec refunds.RefundRecord, cents int64, log *logger.Logger) (*refunds.RefundRecord, bool, error) {
	if cents <= 0 {
		return nil, false, apperror.InvalidAmount(money.FromCents(cents))
	}

	existing, err := r.findExisting(ctx, rec.ReferenceID, rec.SlotSignature)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	amount := money.FromCents(cents)
	refundID := RefundIDFor(rec.ReferenceID, rec.SlotSignature, cents)

	refund, status, err := r.requestRefund(ctx, orderID, refundID, amount, rec, log)
	if err != nil {
		return nil, false, err
	}
	if status != gateway.StatusSuccess {
		log.LogRefundNotConfirmed(ctx, orderID, refundID, string(status))
		return nil, false, apperror.RefundNotConfirmed(string(status), map[string]interface{}{
			"orderId":    orderID,
			"refundId":   refundID,
			"lastStatus": status,
		})
	}

	applyRefund(&rec, orderID, amount, refund, status)
	return r.insert(ctx, &rec)
}

// requestRefund creates the refund and polls until it is decided or the
// schedule runs out.
func (r *reconciler) requestRefund(ctx context.Context, orderID, refundID string, amount float64, rec refunds.RefundRecord, log *logger.Logger) (*gateway.Refund, gateway.Status, error) {
	refund, err := r.gateway.CreateRefund(ctx, gateway.RefundRequest{
		OrderID:  orderID,
		RefundID: refundID,
		Amount:   amount,
		Currency: rec.Currency,
		Note:     rec.Reason,
	})
	if err != nil {
		log.WithError(err).ErrorContext(ctx, "Gateway refund request failed",
			slog.String("order_id", orderID),
			slog.String("refund_id", refundID),
		)
		return nil, "", err
	}
	log.LogRefundRequested(ctx, orderID, refundID, amount)

	// A duplicate create carries no gateway ids; the lookups fill them in.
	for _, delay := range r.opts.PollDelays {
		if refund.Status == gateway.StatusSuccess || refund.Status == gateway.StatusFailed {
			break
		}
		if err := r.opts.Sleep(ctx, delay); err != nil {
			break
		}
		refund.Absorb(r.gateway.PollStatus(ctx, orderID, refundID))
	}
	return refund, refund.Status, nil
}

func applyRefund(rec *refunds.RefundRecord, orderID string, amount float64, refund *gateway.Refund, status gateway.Status) {
	rec.Amount = amount
	rec.Gateway = refunds.GatewayPayment
	rec.OrderID = orderID
	rec.RefundID = refund.RefundID
	rec.GatewayRefundID = refund.GatewayRefundID
	rec.GatewayPaymentID = refund.GatewayPaymentID
	rec.Status = refunds.Status(status)
	rec.StatusDescription = refund.StatusDescription
}

func (r *reconciler) restoreCredit(ctx context.Context, booking *bookings.Booking, rec *refunds.RefundRecord, log *logger.Logger) bool {
	userID, err := r.payingUser(ctx, booking)
	if err != nil {
		log.WarnContext(ctx, "Membership credit resolution failed",
			slog.String("refund_record_id", rec.ID.String()),
			slog.String("user_email", booking.UserEmail),
			slog.String("error", err.Error()),
		)
		return false
	}

	restored, err := r.credits.RestoreOneCredit(ctx, userID)
	if err != nil {
		log.ErrorWithContext(ctx, "Membership credit restore failed", err, map[string]interface{}{
			"user_id": userID.String(),
		})
		return false
	}
	if !restored {
		return false
	}

	if err := r.ledger.MarkCreditRestored(ctx, rec.ID); err != nil {
		log.ErrorContext(ctx, "Failed to flag credit restoration on refund record",
			slog.String("refund_record_id", rec.ID.String()),
			slog.String("error", err.Error()),
		)
	} else {
		rec.MembershipCreditRestored = true
	}
	return true
}

func (r *reconciler) payingUser(ctx context.Context, b *bookings.Booking) (uuid.UUID, error) {
	if b.UserID != nil && *b.UserID != uuid.Nil {
		return *b.UserID, nil
	}
	return r.credits.ResolveUser(ctx, b.UserEmail, b.UserName)
}

// findExisting returns the ledger row for the signature, or nil.
func (r *reconciler) findExisting(ctx context.Context, referenceID uuid.UUID, signature string) (*refunds.RefundRecord, error) {
	existing, err := r.ledger.FindBySignature(ctx, referenceID, signature)
	if err == nil {
		return existing, nil
	}
	if errors.Is(err, refunds.ErrRefundNotFound) {
		return nil, nil
	}
	return nil, err
}

// insert appends rec. Losing the unique-index race to a concurrent writer
// returns the winner's row with dup set.
func (r *reconciler) insert(ctx context.Context, rec *refunds.RefundRecord) (*refunds.RefundRecord, bool, error) {
	err := r.ledger.Create(ctx, rec)
	if err == nil {
		return rec, false, nil
	}
	if !errors.Is(err, refunds.ErrDuplicate) {
		return nil, false, err
	}
	existing, ferr := r.ledger.FindBySignature(ctx, rec.ReferenceID, rec.SlotSignature)
	if ferr != nil {
		return nil, false, fmt.Errorf("failed to load duplicate refund record: %w", ferr)
	}
	return existing, true, nil
}

func (r *reconciler) baseRecord(b *bookings.Booking, kind refunds.Kind, signature string, meta Meta, defaultReason string) refunds.RefundRecord {
	rec := refunds.RefundRecord{
		Kind:          kind,
		ReferenceID:   b.ID,
		SlotSignature: signature,
		Currency:      r.currency(b.Currency),
		Reason:        reasonOr(meta.Reason, defaultReason),
		Metadata: refunds.Metadata{
			SlotSignature: signature,
			PaymentRef:    b.PaymentRef(),
			OrderID:       b.OrderID,
			Operator:      meta.Operator,
		},
	}
	rec.SnapshotIdentity(b)
	return rec
}

func (r *reconciler) findBooking(ctx context.Context, id uuid.UUID) (*bookings.Booking, error) {
	booking, err := r.bookings.FindByIDAcrossVariants(ctx, id)
	if err != nil {
		if errors.Is(err, bookings.ErrBookingNotFound) {
			return nil, apperror.NotFound("booking not found")
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return booking, nil
}

// lock takes the per-reference guard. A held lock is a conflict; an
// unreachable lock backend is logged and the cancellation runs unguarded.
func (r *reconciler) lock(ctx context.Context, key string) (func(), error) {
	release, err := r.locker.Acquire(ctx, key, r.opts.LockTTL)
	if err == nil {
		return release, nil
	}
	if errors.Is(err, cache.ErrLockHeld) {
		return nil, apperror.Conflict("a cancellation for this record is already in progress")
	}
	r.log.WarnContext(ctx, "Cancellation lock unavailable, continuing without it",
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
	return func() {}, nil
}

func (r *reconciler) currency(c string) string {
	if c == "" {
		return r.opts.DefaultCurrency
	}
	return c
}

// export is best effort; failures are logged and never returned.
func (r *reconciler) export(ctx context.Context, b *bookings.Booking, path Path, kind refunds.Kind, slots []bookings.Slot, cents []int64, status refunds.Status, meta Meta) {
	now := r.opts.Now()
	rows := make([]audit.Row, 0, len(slots))
	for i, slot := range slots {
		var amount int64
		if i < len(cents) {
			amount = cents[i]
		}
		rows = append(rows, audit.Row{
			BookingID:    b.ID.String(),
			Date:         b.Date.Format("2006-01-02"),
			Court:        slot.CourtID,
			Start:        slot.Start,
			End:          slot.End,
			PayerName:    b.PayerName(),
			PayerClass:   payerClass(b, path),
			BookingType:  string(kind),
			PaymentTag:   b.PaymentRef(),
			Amount:       money.FromCents(amount),
			Currency:     r.currency(b.Currency),
			RefundStatus: string(status),
			Note:         reasonOr(meta.Reason, meta.Operator),
			CancelledAt:  now,
		})
	}

	exportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := r.audit.Export(exportCtx, rows); err != nil {
		r.log.WarnContext(ctx, "Audit export failed",
			slog.String("booking_id", b.ID.String()),
			slog.Int("rows", len(rows)),
			slog.String("error", err.Error()),
		)
	}
}

func payerClass(b *bookings.Booking, path Path) string {
	switch {
	case b.IsGuest():
		return "guest"
	case path == PathMembership:
		return "member"
	default:
		return "account"
	}
}

func (o *Outcome) addRecord(rec *refunds.RefundRecord, dup bool) {
	if rec == nil {
		return
	}
	o.RecordIDs = append(o.RecordIDs, rec.ID.String())
	if dup {
		o.Duplicate = true
	}
}

func mutationError(err error) error {
	switch {
	case errors.Is(err, bookings.ErrBookingNotFound):
		return apperror.NotFound("booking not found")
	case errors.Is(err, bookings.ErrSlotNotFound):
		return apperror.NotFound("slot not found in booking")
	default:
		return fmt.Errorf("failed to apply cancellation: %w", err)
	}
}

// splitCents divides total across n slots the way sequential slot
// cancellations would.
func splitCents(total int64, n int) []int64 {
	out := make([]int64, 0, n)
	for remaining := n; remaining > 0; remaining-- {
		part := total
		if remaining > 1 {
			part = money.Share(total, remaining)
		}
		out = append(out, part)
		total -= part
	}
	return out
}

func reasonOr(reason, fallback string) string {
	if reason != "" {
		return reason
	}
	return fallback
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
