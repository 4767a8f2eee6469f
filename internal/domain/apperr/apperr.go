package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how it is surfaced to the initiating actor.
type Kind string

const (
	KindValidation   Kind = "VALIDATION"
	KindNotFound     Kind = "NOT_FOUND"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindDelivery     Kind = "DELIVERY_FAILURE"
	KindIntegrity    Kind = "INTEGRITY_FAULT"
	KindInternal     Kind = "INTERNAL"
)

// Error is a classified failure with a user-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Delivery(msg string, err error) *Error {
	return &Error{Kind: KindDelivery, Message: msg, Err: err}
}

func Integrity(msg string) *Error {
	return &Error{Kind: KindIntegrity, Message: msg}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// UserMessage returns the message meant for the actor when err is classified.
func UserMessage(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message, true
	}
	return "", false
}
