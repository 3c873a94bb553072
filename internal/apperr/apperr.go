// Package apperr defines the closed set of business failures returned by the
// services and the ledger. Callers switch on Kind instead of matching messages.
package apperr

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindNotFound
	KindInsufficientStock
	KindDataIntegrity
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindDataIntegrity:
		return "data_integrity"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Shortfall is one ingredient line that cannot be covered by current stock.
type Shortfall struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Needed      float64 `json:"needed"`
	Available   float64 `json:"available"`
}

type Error struct {
	Kind    Kind
	Message string
	// Shortfalls is set only for KindInsufficientStock.
	Shortfalls []Shortfall
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func InvalidArgument(message string) *Error { return New(KindInvalidArgument, message) }

func NotFound(message string) *Error { return New(KindNotFound, message) }

func Conflict(message string) *Error { return New(KindConflict, message) }

func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }

func Forbidden(message string) *Error { return New(KindForbidden, message) }

// DataIntegrity reports a row referencing something that no longer exists.
func DataIntegrity(message string, format string, args ...interface{}) *Error {
	return Wrap(KindDataIntegrity, message, fmt.Errorf(format, args...))
}

func InsufficientStock(message string, items []Shortfall) *Error {
	return &Error{Kind: KindInsufficientStock, Message: message, Shortfalls: items}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// FromGorm maps well-known gorm errors to typed ones; notFoundMsg is used for a
// missing record. Other errors are wrapped as internal failures.
func FromGorm(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(KindNotFound, notFoundMsg, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Wrap(KindConflict, "Registro duplicado", err)
	default:
		return Wrap(KindInternal, "Erro no banco de dados", err)
	}
}
