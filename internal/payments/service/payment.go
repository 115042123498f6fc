package service

import (
	"context"
	"errors"
	bookingserrors "spacer/internal/bookings/errors"
	"spacer/internal/notifications"
	paymentserrors "spacer/internal/payments/errors"
	"spacer/internal/payments/provider"
	"spacer/internal/payments/repository"
	"spacer/pkg/config"
	apperrors "spacer/pkg/errors"
	"spacer/pkg/model"
	"spacer/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// Outcome is the terminal result reported by the payment provider.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
)

// BookingStore is the slice of the booking repository the payment
// service needs.
type BookingStore interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	UpdateState(ctx context.Context, id string, state model.State) error
}

type PaymentService interface {
	InitiateMpesa(ctx context.Context, actor model.Actor, bookingID, phone string) (string, error)
	Reconcile(ctx context.Context, reference string, outcome Outcome) error
}

type paymentService struct {
	repo     repository.PaymentRepository
	bookings BookingStore
	provider provider.PaymentProvider
	notifier notifications.Notifier
	cfg      *config.Config
}

func NewPaymentService(
	repo repository.PaymentRepository,
	bookings BookingStore,
	prov provider.PaymentProvider,
	notifier notifications.Notifier,
	cfg *config.Config,
) PaymentService {
	return &paymentService{
		repo:     repo,
		bookings: bookings,
		provider: prov,
		notifier: notifier,
		cfg:      cfg,
	}
}

// InitiateMpesa asks the provider to push a payment prompt to the
// customer's phone. The provider call happens outside any lock or
// transaction; the booking itself is not touched until the outcome is
// reconciled.
func (s *paymentService) InitiateMpesa(ctx context.Context, actor model.Actor, bookingID, phone string) (string, error) {
	if bookingID == "" {
		return "", apperrors.InvalidInput("Booking ID cannot be empty")
	}

	normalized := sanitizer.NormalizePhone(phone)
	if normalized == "" {
		return "", apperrors.InvalidInput("Invalid phone number, expected format 254XXXXXXXXX")
	}

	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if booking.UserID != actor.ID && !actor.IsAdmin() {
		return "", apperrors.Forbidden("You can only pay for your own bookings")
	}
	if booking.State() != model.NewBookingState() {
		return "", apperrors.Conflict("Invalid booking status for payment")
	}

	if existing, err := s.repo.FindByBookingID(ctx, bookingID); err == nil {
		if existing.Status != model.PaymentFailed {
			return "", apperrors.Conflict("A payment for this booking already exists")
		}
	} else if !errors.Is(err, paymentserrors.ErrNotFound) {
		return "", apperrors.Internal("Failed to look up payment", err)
	}

	reference, err := s.provider.InitiateSTKPush(ctx, normalized, booking.TotalPrice, booking.ID)
	if err != nil {
		s.cfg.Log.Error("STK push initiation failed", "booking_id", bookingID, "error", err)
		return "", err
	}

	payment := &model.Payment{
		BookingID:     booking.ID,
		Amount:        booking.TotalPrice,
		Method:        model.MethodMpesa,
		TransactionID: reference,
		Status:        model.PaymentPending,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("Transaction reference already used")
		}
		return "", apperrors.Internal("Failed to record payment", err)
	}

	s.cfg.Log.Info("M-Pesa payment initiated",
		"booking_id", booking.ID,
		"payment_id", payment.ID,
		"checkout_request_id", reference,
	)
	return reference, nil
}

// Reconcile applies a provider outcome to the payment identified by its
// external reference and to its booking, atomically. Replaying the same
// outcome is a no-op.
func (s *paymentService) Reconcile(ctx context.Context, reference string, outcome Outcome) error {
	if reference == "" {
		return apperrors.InvalidInput("Payment reference cannot be empty")
	}

	target := model.PaymentCompleted
	if outcome == OutcomeFailure {
		target = model.PaymentFailed
	}

	var confirmed *model.Booking
	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		payment, err := s.repo.FindByTransactionID(txCtx, reference)
		if err != nil {
			if errors.Is(err, paymentserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Payment", reference)
			}
			return apperrors.Internal("Failed to look up payment", err)
		}

		if payment.Status == target {
			s.cfg.Log.Info("Reconciliation already applied",
				"reference", reference,
				"status", payment.Status,
			)
			return nil
		}
		if payment.Status == model.PaymentRefunded {
			return apperrors.Conflict("Payment was already refunded")
		}

		booking, err := s.bookings.FindByID(txCtx, payment.BookingID)
		if err != nil {
			return apperrors.Internal("Failed to load booking for payment", err)
		}

		var next model.State
		if outcome == OutcomeSuccess {
			next, err = booking.State().Confirm()
		} else {
			next, err = booking.State().FailPayment()
		}
		if err != nil {
			return apperrors.Conflict("Booking can no longer accept this payment outcome")
		}

		if err := s.repo.UpdateStatus(txCtx, payment.ID, target); err != nil {
			return apperrors.Internal("Failed to update payment status", err)
		}
		if err := s.bookings.UpdateState(txCtx, booking.ID, next); err != nil {
			return apperrors.Internal("Failed to update booking status", err)
		}

		if outcome == OutcomeSuccess {
			booking.SetState(next)
			confirmed = booking
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Reconciliation failed", "reference", reference, "error", err)
		return err
	}

	s.cfg.Log.Info("Payment reconciled",
		"reference", reference,
		"outcome", target,
	)
	if confirmed != nil {
		s.notifier.BookingConfirmed(ctx, confirmed)
	}
	return nil
}

func (s *paymentService) findBooking(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}
