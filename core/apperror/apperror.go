package apperror

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Kind classifies an error independently of where it was raised.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindNotFound
	KindConflict
	KindInsufficientStock
	KindUnavailable
	KindTimeout
	KindCanceled
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnavailable       = errors.New("backend unavailable")
	ErrTimeout           = errors.New("backend timeout")
	ErrCanceled          = errors.New("canceled")
)

var sentinels = map[Kind]error{
	KindInvalidInput:      ErrInvalidInput,
	KindNotFound:          ErrNotFound,
	KindConflict:          ErrConflict,
	KindInsufficientStock: ErrInsufficientStock,
	KindUnavailable:       ErrUnavailable,
	KindTimeout:           ErrTimeout,
	KindCanceled:          ErrCanceled,
}

// String returns the machine-oriented name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindUnavailable:
		return "unavailable"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error is a typed failure of a single operation.
type Error struct {
	// Kind is the error classification.
	Kind Kind
	// Op names the failing operation, e.g. "catalog.GetOrCreate".
	Op string
	// Msg is a short machine-oriented description.
	Msg string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = sentinels[e.Kind].Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of this error's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// InsufficientStockError is returned when a removal would drive a quantity negative.
type InsufficientStockError struct {
	// GTIN is set when the failing call resolved the variant by GTIN.
	GTIN      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	if e.GTIN != "" {
		return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", e.GTIN, e.Available, e.Requested)
	}
	return fmt.Sprintf("insufficient stock: available %d, requested %d", e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InvalidInput builds an InvalidInput error.
func InvalidInput(op, format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NotFound builds a NotFound error.
func NotFound(op, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Conflict builds a Conflict error.
func Conflict(op, format string, args ...any) error {
	return &Error{Kind: KindConflict, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindUnknown when err carries none.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	var stock *InsufficientStockError
	if errors.As(err, &stock) {
		return KindInsufficientStock
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	for k, s := range sentinels {
		if errors.Is(err, s) {
			return k
		}
	}
	return KindUnknown
}

// FromStore classifies an error returned by gorm. Already typed errors pass through.
func FromStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	var stock *InsufficientStockError
	if errors.As(err, &typed) || errors.As(err, &stock) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindCanceled, Op: op, Err: err}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Op: op, Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindConflict, Op: op, Err: err}
	default:
		return &Error{Kind: KindUnavailable, Op: op, Err: err}
	}
}
