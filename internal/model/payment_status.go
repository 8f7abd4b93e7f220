package model

import "fmt"

// PaymentMethod 付款方式 is how a contribution is paid.
type PaymentMethod string

const (
	PaymentMethodTwint PaymentMethod = "twint"
	PaymentMethodCash  PaymentMethod = "cash"
)

// Valid reports whether the method is one of the known values.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodTwint || m == PaymentMethodCash
}

// PaymentPhase is the lifecycle phase of a contribution, orthogonal to the
// payment method. The storage column keeps the five legacy combined strings;
// the code works with method and phase separately so illegal combinations
// cannot be constructed.
type PaymentPhase string

const (
	PhaseUnpaid  PaymentPhase = "unpaid"
	PhasePending PaymentPhase = "pending"
	PhasePaid    PaymentPhase = "paid"
)

// PaymentStatus is the stored representation: one of unpaid, twint_pending,
// cash_pending, twint_paid, cash_paid.
type PaymentStatus string

const (
	PaymentStatusUnpaid       PaymentStatus = "unpaid"
	PaymentStatusTwintPending PaymentStatus = "twint_pending"
	PaymentStatusCashPending  PaymentStatus = "cash_pending"
	PaymentStatusTwintPaid    PaymentStatus = "twint_paid"
	PaymentStatusCashPaid     PaymentStatus = "cash_paid"
)

// StatusFor combines method and phase into the stored string. The unpaid
// phase collapses to the single "unpaid" value regardless of method.
func StatusFor(method PaymentMethod, phase PaymentPhase) (PaymentStatus, error) {
	if phase == PhaseUnpaid {
		return PaymentStatusUnpaid, nil
	}
	if !method.Valid() {
		return "", fmt.Errorf("unknown payment method %q", method)
	}
	switch phase {
	case PhasePending:
		return PaymentStatus(string(method) + "_pending"), nil
	case PhasePaid:
		return PaymentStatus(string(method) + "_paid"), nil
	default:
		return "", fmt.Errorf("unknown payment phase %q", phase)
	}
}

// Valid reports whether the status is one of the five stored values.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusTwintPending, PaymentStatusCashPending,
		PaymentStatusTwintPaid, PaymentStatusCashPaid:
		return true
	}
	return false
}

// Phase extracts the lifecycle phase.
func (s PaymentStatus) Phase() PaymentPhase {
	switch s {
	case PaymentStatusTwintPending, PaymentStatusCashPending:
		return PhasePending
	case PaymentStatusTwintPaid, PaymentStatusCashPaid:
		return PhasePaid
	default:
		return PhaseUnpaid
	}
}

// Method extracts the payment method encoded in the status. The unpaid state
// carries none, reported by ok == false.
func (s PaymentStatus) Method() (method PaymentMethod, ok bool) {
	switch s {
	case PaymentStatusTwintPending, PaymentStatusTwintPaid:
		return PaymentMethodTwint, true
	case PaymentStatusCashPending, PaymentStatusCashPaid:
		return PaymentMethodCash, true
	default:
		return "", false
	}
}

// Paid reports whether the status is a _paid variant. The paid column is
// always derived from this, never set independently.
func (s PaymentStatus) Paid() bool {
	return s.Phase() == PhasePaid
}
