package coupon

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatchingTemplate is reported when no template anchor matched.
	ErrNoMatchingTemplate = errors.New("no matching template")
	// ErrUnknownCouponType is returned by Extract for a type without a profile.
	ErrUnknownCouponType = errors.New("unknown coupon type")
	// ErrInvalidImage wraps decode failures of an uploaded buffer.
	ErrInvalidImage = errors.New("invalid image")
	// ErrNoBarcode is returned when no barcode symbol could be decoded.
	ErrNoBarcode = errors.New("no barcode symbol found")

	errWorkerClosed = errors.New("ocr worker closed")
)

// ErrorCode identifies a rejection reported to API callers.
type ErrorCode string

const (
	CodeNoMatchingTemplate ErrorCode = "NO_MATCHING_TEMPLATE"
	CodeUnknownCouponType  ErrorCode = "UNKNOWN_COUPON_TYPE"
	CodeInvalidImage       ErrorCode = "INVALID_IMAGE"
)

// Code maps an error from this package to its API code, or "" when the error
// is an infrastructure failure.
func Code(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrNoMatchingTemplate):
		return CodeNoMatchingTemplate
	case errors.Is(err, ErrUnknownCouponType):
		return CodeUnknownCouponType
	case errors.Is(err, ErrInvalidImage):
		return CodeInvalidImage
	}
	return ""
}

// PoolInitError reports the worker that could not be created. It is fatal to
// startup.
type PoolInitError struct {
	CouponType string
	Title      string
	Cause      error
}

func (e *PoolInitError) Error() string {
	return fmt.Sprintf("init worker %s/%s: %v", e.CouponType, e.Title, e.Cause)
}

func (e *PoolInitError) Unwrap() error {
	return e.Cause
}
