package payments

import (
	"errors"
	"fmt"
)

// Precondition error codes. Each maps to a distinct rejected outcome; none of
// them is retried automatically.
const (
	CodeNotFound             = "notFound"
	CodeGuideNotPayable      = "guideNotPayable"
	CodeGuideAccountNotReady = "guideAccountNotReady"
	CodeDepositWindowClosed  = "depositWindowClosed"
	CodeLegacyBooking        = "legacyBookingNoActionNeeded"
	CodeTourNotCompleted     = "tourNotYetCompleted"
	CodeAlreadySettled       = "alreadySettled"
	CodePaymentNotConfirmed  = "paymentNotConfirmed"
	CodeInvalidAmounts       = "invalidAmounts"
)

type PaymentError struct {
	Code    string
	Message string
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewPaymentError(code, msg string) error {
	return &PaymentError{Code: code, Message: msg}
}

// HasCode reports whether err is a PaymentError carrying the given code.
func HasCode(err error, code string) bool {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
