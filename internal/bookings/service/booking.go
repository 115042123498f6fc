package service

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "spacer/internal/bookings/errors"
	"spacer/internal/bookings/repository"
	"spacer/internal/bookings/validator"
	"spacer/internal/notifications"
	paymentserrors "spacer/internal/payments/errors"
	spaceserrors "spacer/internal/spaces/errors"
	"spacer/pkg/config"
	apperrors "spacer/pkg/errors"
	"spacer/pkg/model"
	"spacer/pkg/sanitizer"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// SpaceStore is the slice of the space repository the booking service
// needs. Calls made with a transaction context join the transaction.
type SpaceStore interface {
	FindByID(ctx context.Context, id string) (*model.Space, error)
	SetAvailability(ctx context.Context, id string, available bool) error
}

// PaymentStore is the slice of the payment repository the booking
// service needs for the synchronous payment path and for refunds.
type PaymentStore interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByBookingID(ctx context.Context, bookingID string) (*model.Payment, error)
	UpdateStatus(ctx context.Context, id string, status model.PaymentStatus) error
}

type BookingService interface {
	Create(ctx context.Context, actor model.Actor, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	GetByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error)
	Pay(ctx context.Context, actor model.Actor, bookingID string, method model.PaymentMethod, transactionID string) (*model.Payment, error)
	Cancel(ctx context.Context, actor model.Actor, bookingID string) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	spaces    SpaceStore
	payments  PaymentStore
	validator *validator.BookingValidator
	notifier  notifications.Notifier
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	spaces SpaceStore,
	payments PaymentStore,
	validator *validator.BookingValidator,
	notifier notifications.Notifier,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		spaces:    spaces,
		payments:  payments,
		validator: validator,
		notifier:  notifier,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, actor model.Actor, booking *model.Booking) error {
	booking.UserID = actor.ID
	s.applyDefaults(booking)
	s.sanitize(booking)

	if err := s.validator.ValidateInterval(booking.StartTime, booking.EndTime, time.Now().UTC()); err != nil {
		return s.intervalError(err)
	}
	if err := s.validate(booking); err != nil {
		return err
	}

	// The advisory lock serializes creation per space; the overlap
	// re-check inside the transaction is what actually decides.
	lockID, err := s.acquireSpaceLock(ctx, booking.SpaceID)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseSpaceLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		space, err := s.findSpace(txCtx, booking.SpaceID)
		if err != nil {
			return err
		}
		if !space.IsAvailable {
			return apperrors.Conflict("Space is not available")
		}

		overlap, err := s.hasOverlap(txCtx, booking.SpaceID, booking.StartTime, booking.EndTime, "")
		if err != nil {
			return apperrors.Internal("Failed to check booking overlap", err)
		}
		if overlap {
			return apperrors.Conflict("Space is already booked for this time period")
		}

		booking.TotalPrice = model.PriceFor(space.PricePerHour, booking.StartTime, booking.EndTime)

		if err := s.repo.Create(txCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		if err := s.spaces.SetAvailability(txCtx, booking.SpaceID, false); err != nil {
			return apperrors.Internal("Failed to update space availability", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "space_id", booking.SpaceID, "error", err)
		return err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"space_id", booking.SpaceID,
		"user_id", booking.UserID,
		"start_time", booking.StartTime,
		"total_price", booking.TotalPrice,
	)
	s.notifier.BookingCreated(ctx, booking)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	return s.findBooking(ctx, id)
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) GetByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if userID == "" {
		return nil, 0, apperrors.InvalidInput("User ID cannot be empty")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByUser(ctx, userID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count user bookings", "user_id", userID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByUser(ctx, userID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list user bookings", "user_id", userID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// Pay records a synchronous (card/cash style) payment and confirms the
// booking, both inside one transaction.
func (s *bookingService) Pay(ctx context.Context, actor model.Actor, bookingID string, method model.PaymentMethod, transactionID string) (*model.Payment, error) {
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if !method.Valid() {
		return nil, apperrors.InvalidInput("Invalid payment method")
	}

	var payment *model.Payment
	var confirmed *model.Booking
	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		booking, err := s.findBooking(txCtx, bookingID)
		if err != nil {
			return err
		}
		if booking.UserID != actor.ID && !actor.IsAdmin() {
			return apperrors.Forbidden("You can only pay for your own bookings")
		}

		next, err := booking.State().Confirm()
		if err != nil {
			return apperrors.Conflict("Invalid booking status for payment")
		}

		payment = &model.Payment{
			BookingID:     booking.ID,
			Amount:        booking.TotalPrice,
			Method:        method,
			TransactionID: transactionID,
			Status:        model.PaymentCompleted,
		}
		if err := s.payments.Create(txCtx, payment); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return apperrors.Conflict("Transaction reference already used")
			}
			return apperrors.Internal("Failed to record payment", err)
		}

		if err := s.repo.UpdateState(txCtx, booking.ID, next); err != nil {
			return apperrors.Internal("Failed to update booking status", err)
		}
		booking.SetState(next)
		confirmed = booking
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to process payment", "booking_id", bookingID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking paid successfully",
		"booking_id", confirmed.ID,
		"payment_id", payment.ID,
		"method", payment.Method,
		"amount", payment.Amount,
	)
	s.notifier.BookingConfirmed(ctx, confirmed)
	return payment, nil
}

// Cancel releases the booking. Any recorded payment is refunded
// unconditionally and the space is made available again.
func (s *bookingService) Cancel(ctx context.Context, actor model.Actor, bookingID string) (*model.Booking, error) {
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	var cancelled *model.Booking
	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		booking, err := s.findBooking(txCtx, bookingID)
		if err != nil {
			return err
		}

		space, err := s.findSpace(txCtx, booking.SpaceID)
		if err != nil {
			return err
		}
		if actor.ID != booking.UserID && actor.ID != space.OwnerID && !actor.IsAdmin() {
			return apperrors.Forbidden("You are not allowed to cancel this booking")
		}

		payment, err := s.payments.FindByBookingID(txCtx, booking.ID)
		if err != nil && !errors.Is(err, paymentserrors.ErrNotFound) {
			return apperrors.Internal("Failed to look up payment", err)
		}

		next, err := booking.State().Cancel(payment != nil)
		if err != nil {
			switch {
			case errors.Is(err, model.ErrAlreadyCancelled):
				return apperrors.Conflict("Booking is already cancelled")
			case errors.Is(err, model.ErrCannotCancelCompleted):
				return apperrors.Conflict("Cannot cancel a completed booking")
			}
			return apperrors.Conflict("Booking cannot be cancelled")
		}

		if payment != nil {
			if err := s.payments.UpdateStatus(txCtx, payment.ID, model.PaymentRefunded); err != nil {
				return apperrors.Internal("Failed to refund payment", err)
			}
		}
		if err := s.repo.UpdateState(txCtx, booking.ID, next); err != nil {
			return apperrors.Internal("Failed to update booking status", err)
		}
		if err := s.spaces.SetAvailability(txCtx, booking.SpaceID, true); err != nil {
			return apperrors.Internal("Failed to update space availability", err)
		}

		booking.SetState(next)
		cancelled = booking
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to cancel booking", "booking_id", bookingID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking cancelled successfully",
		"booking_id", cancelled.ID,
		"space_id", cancelled.SpaceID,
		"payment_status", cancelled.PaymentStatus,
	)
	s.notifier.BookingCancelled(ctx, cancelled)
	return cancelled, nil
}

// --- Helpers ---

func (s *bookingService) applyDefaults(b *model.Booking) {
	b.SetState(model.NewBookingState())
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
}

func (s *bookingService) sanitize(b *model.Booking) {
	b.Purpose = sanitizer.NormalizeText(b.Purpose)
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *bookingService) intervalError(err error) error {
	switch {
	case errors.Is(err, bookingserrors.ErrInvalidFormat):
		return apperrors.InvalidInput("start_time and end_time must be valid timestamps")
	case errors.Is(err, bookingserrors.ErrNotInFuture):
		return apperrors.Validation("Start time must be in the future", nil)
	case errors.Is(err, bookingserrors.ErrNonPositiveDuration):
		return apperrors.Validation("End time must be after start time", nil)
	case errors.Is(err, bookingserrors.ErrDurationExceeded):
		return apperrors.Validation("Booking duration exceeds the maximum allowed", map[string]any{
			"max_duration": s.validator.MaxDuration().String(),
		})
	}
	return apperrors.Validation(err.Error(), nil)
}

func (s *bookingService) findBooking(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
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

func (s *bookingService) findSpace(ctx context.Context, id string) (*model.Space, error) {
	space, err := s.spaces.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, spaceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Space", id)
		}
		if errors.Is(err, spaceserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid space ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve space", err)
	}
	return space, nil
}

// hasOverlap scans the non-cancelled bookings of a space for an
// interval collision. excludeID skips one booking, for checks made on
// behalf of an existing booking.
func (s *bookingService) hasOverlap(ctx context.Context, spaceID string, start, end time.Time, excludeID string) (bool, error) {
	existing, err := s.repo.FindActiveBySpace(ctx, spaceID)
	if err != nil {
		return false, err
	}

	for _, b := range existing {
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if intervalsOverlap(b.StartTime, b.EndTime, start, end) {
			return true, nil
		}
	}
	return false, nil
}

// intervalsOverlap applies the three availability clauses exactly as
// the product defines them. The boundary behavior (an existing end
// touching a new end counts, an existing end touching a new start does
// not) is part of the contract; do not "simplify" the clauses.
func intervalsOverlap(existingStart, existingEnd, start, end time.Time) bool {
	// existing.start <= start && existing.end > start
	if !existingStart.After(start) && existingEnd.After(start) {
		return true
	}
	// existing.start < end && existing.end >= end
	if existingStart.Before(end) && !existingEnd.Before(end) {
		return true
	}
	// existing.start >= start && existing.end <= end
	if !existingStart.Before(start) && !existingEnd.After(end) {
		return true
	}
	return false
}

func (s *bookingService) acquireSpaceLock(ctx context.Context, spaceID string) (string, error) {
	lockID := fmt.Sprintf("space:%s", spaceID)
	lock := &model.BookingLock{
		ID:        lockID,
		ExpiresAt: time.Now().UTC().Add(s.cfg.BookingLockTTL),
	}

	if _, err := s.lockRepo.Create(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("Another booking for this space is in progress")
		}
		return "", apperrors.Internal("Failed to acquire booking lock", err)
	}
	return lockID, nil
}

func (s *bookingService) releaseSpaceLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}
