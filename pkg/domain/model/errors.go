package model

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrNotAuthorized means the actor does not hold the role required for a transition
	ErrNotAuthorized = errors.New("not authorized")
	// ErrInvalidTransition means the case status or offer does not allow the transition
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrValidation means form input is malformed
	ErrValidation = errors.New("validation failed")
)

// Context keys for error values
const (
	CaseIDKey       = "case_id"
	ActorIDKey      = "actor_id"
	ActionKey       = "action"
	StatusKey       = "status"
	RequiredRoleKey = "required_role"
	FieldKey        = "field"
)

// RequiredRoleOf extracts the role carried by an ErrNotAuthorized error
func RequiredRoleOf(err error) (string, bool) {
	return stringValue(err, RequiredRoleKey)
}

// InvalidFieldOf extracts the form field that failed validation
func InvalidFieldOf(err error) (string, bool) {
	return stringValue(err, FieldKey)
}

func stringValue(err error, key string) (string, bool) {
	for e := err; e != nil; e = errors.Unwrap(e) {
		var ge *goerr.Error
		if !errors.As(e, &ge) {
			return "", false
		}
		if v, ok := ge.Values()[key]; ok {
			switch s := v.(type) {
			case string:
				return s, true
			case interface{ String() string }:
				return s.String(), true
			default:
				return "", false
			}
		}
		e = ge
	}
	return "", false
}
