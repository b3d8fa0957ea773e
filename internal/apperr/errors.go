// Package apperr holds the business error taxonomy shared by the engine and
// the HTTP layer. Rule violations are returned as *Error values with a Kind;
// anything else is an unexpected fault.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindConflict             Kind = "conflict"
	KindValidation           Kind = "validation_error"
	KindInsufficientFunds    Kind = "insufficient_funds"
	KindRestrictionViolation Kind = "restriction_violation"
	KindGateway              Kind = "gateway_error"
	KindAlreadyTerminal      Kind = "already_terminal"
	KindWalletInactive       Kind = "wallet_inactive"
)

// Error carries the kind plus the offending entity.
type Error struct {
	Kind   Kind
	Entity string
	ID     string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	var s string
	switch {
	case e.Entity != "" && e.ID != "":
		s = fmt.Sprintf("%s %s %s", e.Entity, e.ID, e.Msg)
	case e.Entity != "":
		s = fmt.Sprintf("%s %s", e.Entity, e.Msg)
	default:
		s = e.Msg
	}
	if e.Err != nil {
		return s + ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: KindConflict}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Entity == "" || t.Entity == e.Entity)
}

func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id, Msg: "not found"}
}

func Conflict(entity, id, msg string) *Error {
	return &Error{Kind: KindConflict, Entity: entity, ID: id, Msg: msg}
}

func Validation(entity, id, msg string) *Error {
	return &Error{Kind: KindValidation, Entity: entity, ID: id, Msg: msg}
}

func InsufficientFunds(walletID string) *Error {
	return &Error{Kind: KindInsufficientFunds, Entity: "wallet", ID: walletID, Msg: "has insufficient funds"}
}

func RestrictionViolation(seatID, msg string) *Error {
	return &Error{Kind: KindRestrictionViolation, Entity: "seat", ID: seatID, Msg: msg}
}

func Gateway(id string, err error) *Error {
	return &Error{Kind: KindGateway, Entity: "payment", ID: id, Msg: "gateway call failed", Err: err}
}

func AlreadyTerminal(entity, id, status string) *Error {
	return &Error{Kind: KindAlreadyTerminal, Entity: entity, ID: id, Msg: "is already " + status}
}

func WalletInactive(walletID string) *Error {
	return &Error{Kind: KindWalletInactive, Entity: "wallet", ID: walletID, Msg: "is inactive"}
}

// KindOf returns the kind of a taxonomy error, or "" for unexpected faults.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func IsNotFound(err error) bool          { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool          { return KindOf(err) == KindConflict }
func IsValidation(err error) bool        { return KindOf(err) == KindValidation }
func IsInsufficientFunds(err error) bool { return KindOf(err) == KindInsufficientFunds }
func IsRestriction(err error) bool       { return KindOf(err) == KindRestrictionViolation }
func IsGateway(err error) bool           { return KindOf(err) == KindGateway }
func IsAlreadyTerminal(err error) bool   { return KindOf(err) == KindAlreadyTerminal }
func IsWalletInactive(err error) bool    { return KindOf(err) == KindWalletInactive }
