package service

import (
	"context"
	"io"
	bookingserrors "spacer/internal/bookings/errors"
	"spacer/internal/notifications"
	paymentserrors "spacer/internal/payments/errors"
	"spacer/pkg/config"
	mongotx "spacer/pkg/db/mongo"
	apperrors "spacer/pkg/errors"
	"spacer/pkg/logger"
	"spacer/pkg/model"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockPaymentRepo struct {
	payments map[string]*model.Payment
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{payments: make(map[string]*model.Payment)}
}

func (m *mockPaymentRepo) Create(_ context.Context, p *model.Payment) error {
	p.ID = primitive.NewObjectID().Hex()
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *mockPaymentRepo) FindByID(_ context.Context, id string) (*model.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, paymentserrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPaymentRepo) FindByBookingID(_ context.Context, bookingID string) (*model.Payment, error) {
	for _, p := range m.payments {
		if p.BookingID == bookingID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, paymentserrors.ErrNotFound
}

func (m *mockPaymentRepo) FindByTransactionID(_ context.Context, transactionID string) (*model.Payment, error) {
	for _, p := range m.payments {
		if p.TransactionID == transactionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, paymentserrors.ErrNotFound
}

func (m *mockPaymentRepo) UpdateStatus(_ context.Context, id string, status model.PaymentStatus) error {
	p, ok := m.payments[id]
	if !ok {
		return paymentserrors.ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *mockPaymentRepo) EnsureIndexes(_ context.Context) error { return nil }

func (m *mockPaymentRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

type mockBookingStore struct {
	bookings map[string]*model.Booking
}

func newMockBookingStore() *mockBookingStore {
	return &mockBookingStore{bookings: make(map[string]*model.Booking)}
}

func (m *mockBookingStore) FindByID(_ context.Context, id string) (*model.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *mockBookingStore) UpdateState(_ context.Context, id string, state model.State) error {
	b, ok := m.bookings[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	b.SetState(state)
	return nil
}

type stubProvider struct {
	reference string
	err       error
	gotPhone  string
	gotAmount float64
	calls     int
}

func (p *stubProvider) InitiateSTKPush(_ context.Context, phone string, amount float64, _ string) (string, error) {
	p.calls++
	p.gotPhone = phone
	p.gotAmount = amount
	if p.err != nil {
		return "", p.err
	}
	return p.reference, nil
}

type fixture struct {
	svc       PaymentService
	repo      *mockPaymentRepo
	bookings  *mockBookingStore
	provider  *stubProvider
	bookingID string
	client    model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		Log: logger.New(logger.Config{
			Level:  logger.ERROR,
			Output: io.Discard,
		}),
	}

	f := &fixture{
		repo:      newMockPaymentRepo(),
		bookings:  newMockBookingStore(),
		provider:  &stubProvider{reference: "ws_CO_test_1"},
		bookingID: primitive.NewObjectID().Hex(),
		client:    model.Actor{ID: "client-1", Role: model.RoleClient},
	}

	start := time.Now().UTC().Add(2 * time.Hour)
	f.bookings.bookings[f.bookingID] = &model.Booking{
		ID:            f.bookingID,
		SpaceID:       primitive.NewObjectID().Hex(),
		UserID:        f.client.ID,
		StartTime:     start,
		EndTime:       start.Add(2 * time.Hour),
		TotalPrice:    50,
		Purpose:       "Team offsite",
		Status:        model.BookingPending,
		PaymentStatus: model.PayPending,
	}

	f.svc = NewPaymentService(
		f.repo,
		f.bookings,
		f.provider,
		notifications.NewNoopNotifier(),
		cfg,
	)
	return f
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected AppError with code %s, got nil", code)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
}

func TestPaymentService_InitiateMpesa(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ref, err := f.svc.InitiateMpesa(ctx, f.client, f.bookingID, "0712345678")
	if err != nil {
		t.Fatalf("expected initiation to succeed, got %v", err)
	}
	if ref != "ws_CO_test_1" {
		t.Fatalf("unexpected reference: %s", ref)
	}
	if f.provider.gotPhone != "254712345678" {
		t.Fatalf("expected normalized phone, got %s", f.provider.gotPhone)
	}
	if f.provider.gotAmount != 50 {
		t.Fatalf("expected booking total as amount, got %v", f.provider.gotAmount)
	}

	payment, err := f.repo.FindByTransactionID(ctx, ref)
	if err != nil {
		t.Fatalf("expected pending payment row, got %v", err)
	}
	if payment.Status != model.PaymentPending || payment.Method != model.MethodMpesa {
		t.Fatalf("unexpected payment: %s/%s", payment.Status, payment.Method)
	}

	// The booking must be untouched until reconciliation.
	booking, _ := f.bookings.FindByID(ctx, f.bookingID)
	if booking.Status != model.BookingPending || booking.PaymentStatus != model.PayPending {
		t.Fatalf("expected pending/pending, got %s/%s", booking.Status, booking.PaymentStatus)
	}
}

func TestPaymentService_InitiateMpesa_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid phone", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.InitiateMpesa(ctx, f.client, f.bookingID, "12345")
		assertAppErrorCode(t, err, apperrors.CodeInvalidInput)
		if f.provider.calls != 0 {
			t.Fatal("provider must not be called for invalid input")
		}
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.InitiateMpesa(ctx, f.client, primitive.NewObjectID().Hex(), "0712345678")
		assertAppErrorCode(t, err, apperrors.CodeNotFound)
	})

	t.Run("stranger cannot initiate", func(t *testing.T) {
		f := newFixture(t)
		stranger := model.Actor{ID: "someone-else", Role: model.RoleClient}
		_, err := f.svc.InitiateMpesa(ctx, stranger, f.bookingID, "0712345678")
		assertAppErrorCode(t, err, apperrors.CodeForbidden)
	})

	t.Run("booking already confirmed", func(t *testing.T) {
		f := newFixture(t)
		f.bookings.bookings[f.bookingID].SetState(model.State{Status: model.BookingConfirmed, Payment: model.PayPaid})
		_, err := f.svc.InitiateMpesa(ctx, f.client, f.bookingID, "0712345678")
		assertAppErrorCode(t, err, apperrors.CodeConflict)
	})

	t.Run("payment already pending", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.svc.InitiateMpesa(ctx, f.client, f.bookingID, "0712345678"); err != nil {
			t.Fatalf("first initiation failed: %v", err)
		}
		_, err := f.svc.InitiateMpesa(ctx, f.client, f.bookingID, "0712345678")
		assertAppErrorCode(t, err, apperrors.CodeConflict)
	})

	t.Run("provider unavailable leaves no payment row", func(t *testing.T) {
		f := newFixture(t)
		f.provider.err = apperrors.Unavailable("Payment provider")
		_, err := f.svc.InitiateMpesa(ctx, f.client, f.bookingID, "0712345678")
		assertAppErrorCode(t, err, apperrors.CodeUnavailable)
		if len(f.repo.payments) != 0 {
			t.Fatalf("expected no payment rows, got %d", len(f.repo.payments))
		}
	})

	t.Run("retry allowed after failed payment", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.svc.InitiateMpesa(ctx, f.client, f.bookingID, "0712345678"); err != nil {
			t.Fatalf("first initiation failed: %v", err)
		}
		if err := f.svc.Reconcile(ctx, "ws_CO_test_1", OutcomeFailure); err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}
		f.provider.reference = "ws_CO_test_2"
		if _, err := f.svc.InitiateMpesa(ctx, f.client, f.bookingID, "0712345678"); err != nil {
			t.Fatalf("expected retry after failure to succeed, got %v", err)
		}
	})
}

func TestPaymentService_Reconcile(t *testing.T) {
	ctx := context.Background()

	initiate := func(t *testing.T, f *fixture) string {
		t.Helper()
		ref, err := f.svc.InitiateMpesa(ctx, f.client, f.bookingID, "0712345678")
		if err != nil {
			t.Fatalf("initiation failed: %v", err)
		}
		return ref
	}

	t.Run("success confirms the booking", func(t *testing.T) {
		f := newFixture(t)
		ref := initiate(t, f)

		if err := f.svc.Reconcile(ctx, ref, OutcomeSuccess); err != nil {
			t.Fatalf("expected reconcile to succeed, got %v", err)
		}

		payment, _ := f.repo.FindByTransactionID(ctx, ref)
		if payment.Status != model.PaymentCompleted {
			t.Fatalf("expected completed payment, got %s", payment.Status)
		}
		booking, _ := f.bookings.FindByID(ctx, f.bookingID)
		if booking.Status != model.BookingConfirmed || booking.PaymentStatus != model.PayPaid {
			t.Fatalf("expected confirmed/paid, got %s/%s", booking.Status, booking.PaymentStatus)
		}
	})

	t.Run("failure returns the booking to pending", func(t *testing.T) {
		f := newFixture(t)
		ref := initiate(t, f)

		if err := f.svc.Reconcile(ctx, ref, OutcomeFailure); err != nil {
			t.Fatalf("expected reconcile to succeed, got %v", err)
		}

		payment, _ := f.repo.FindByTransactionID(ctx, ref)
		if payment.Status != model.PaymentFailed {
			t.Fatalf("expected failed payment, got %s", payment.Status)
		}
		booking, _ := f.bookings.FindByID(ctx, f.bookingID)
		if booking.Status != model.BookingPending || booking.PaymentStatus != model.PayPending {
			t.Fatalf("expected pending/pending, got %s/%s", booking.Status, booking.PaymentStatus)
		}
	})

	t.Run("same outcome twice is a no-op", func(t *testing.T) {
		f := newFixture(t)
		ref := initiate(t, f)

		if err := f.svc.Reconcile(ctx, ref, OutcomeSuccess); err != nil {
			t.Fatalf("first reconcile failed: %v", err)
		}
		if err := f.svc.Reconcile(ctx, ref, OutcomeSuccess); err != nil {
			t.Fatalf("expected replay to be a no-op, got %v", err)
		}

		booking, _ := f.bookings.FindByID(ctx, f.bookingID)
		if booking.Status != model.BookingConfirmed || booking.PaymentStatus != model.PayPaid {
			t.Fatalf("expected confirmed/paid, got %s/%s", booking.Status, booking.PaymentStatus)
		}
	})

	t.Run("unknown reference", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.Reconcile(ctx, "ws_CO_unknown", OutcomeSuccess)
		assertAppErrorCode(t, err, apperrors.CodeNotFound)
	})

	t.Run("empty reference", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.Reconcile(ctx, "", OutcomeSuccess)
		assertAppErrorCode(t, err, apperrors.CodeInvalidInput)
	})

	t.Run("refunded payment rejects further outcomes", func(t *testing.T) {
		f := newFixture(t)
		ref := initiate(t, f)

		payment, _ := f.repo.FindByTransactionID(ctx, ref)
		_ = f.repo.UpdateStatus(ctx, payment.ID, model.PaymentRefunded)

		err := f.svc.Reconcile(ctx, ref, OutcomeSuccess)
		assertAppErrorCode(t, err, apperrors.CodeConflict)
	})
}
