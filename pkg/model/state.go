package model

import "errors"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// PayStatus is the booking-side payment status, distinct from the
// Payment entity's own status.
type PayStatus string

const (
	PayPending  PayStatus = "pending"
	PayPaid     PayStatus = "paid"
	PayRefunded PayStatus = "refunded"
)

var (
	ErrAlreadyCancelled      = errors.New("booking is already cancelled")
	ErrCannotCancelCompleted = errors.New("cannot cancel completed booking")
	ErrInvalidTransition     = errors.New("invalid booking state transition")
)

// State is the composite (status, payment_status) pair treated as a
// single state for transition purposes. Only the pairs enumerated in
// validStates are constructible through transitions; cancelled and
// completed are terminal.
type State struct {
	Status  BookingStatus
	Payment PayStatus
}

var validStates = map[State]bool{
	{BookingPending, PayPending}:    true,
	{BookingConfirmed, PayPaid}:     true,
	{BookingCompleted, PayPaid}:     true,
	{BookingCancelled, PayPending}:  true,
	{BookingCancelled, PayRefunded}: true,
}

// NewBookingState is the only entry state: a fresh booking awaiting
// payment.
func NewBookingState() State {
	return State{Status: BookingPending, Payment: PayPending}
}

func (s State) Valid() bool {
	return validStates[s]
}

func (s State) Terminal() bool {
	return s.Status == BookingCancelled || s.Status == BookingCompleted
}

// Confirm moves a pending booking to confirmed/paid. Used by both the
// synchronous payment path and successful reconciliation.
func (s State) Confirm() (State, error) {
	if s.Status != BookingPending {
		return s, ErrInvalidTransition
	}
	return State{Status: BookingConfirmed, Payment: PayPaid}, nil
}

// Cancel moves any non-terminal state to cancelled. The payment side
// becomes refunded when a payment record exists, matching the
// unconditional refund on cancellation.
func (s State) Cancel(hasPayment bool) (State, error) {
	switch s.Status {
	case BookingCancelled:
		return s, ErrAlreadyCancelled
	case BookingCompleted:
		return s, ErrCannotCancelCompleted
	}
	next := State{Status: BookingCancelled, Payment: PayPending}
	if hasPayment {
		next.Payment = PayRefunded
	}
	return next, nil
}

// Complete is reachable only from confirmed/paid. No endpoint drives
// it; it exists so the terminal state is modeled.
func (s State) Complete() (State, error) {
	if s.Status != BookingConfirmed || s.Payment != PayPaid {
		return s, ErrInvalidTransition
	}
	return State{Status: BookingCompleted, Payment: PayPaid}, nil
}

// FailPayment returns the booking to its pre-payment-attempt state
// after a failed provider outcome. The booking stays reservable by the
// same flow; it is not released to other users.
func (s State) FailPayment() (State, error) {
	if s.Status != BookingPending {
		return s, ErrInvalidTransition
	}
	return State{Status: BookingPending, Payment: PayPending}, nil
}
