package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig          = errors.New("invalid scan configuration")
	ErrSessionNotFound        = errors.New("session not found")
	ErrInvalidStateTransition = errors.New("invalid session state transition")
	ErrSearchProvider         = errors.New("search provider error")
	ErrBacklinkProvider       = errors.New("backlink provider error")
	ErrContactProvider        = errors.New("contact provider error")
	ErrLinkProvider           = errors.New("link checker error")
	ErrPersistence            = errors.New("persistence error")
)

// InvalidConfigError names the configuration field that failed validation.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid scan configuration: %s %s", e.Field, e.Reason)
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.SessionID)
}

func (e *SessionNotFoundError) Unwrap() error { return ErrSessionNotFound }

type InvalidStateTransitionError struct {
	SessionID string
	From      SessionStatus
	To        SessionStatus
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("session %q: cannot transition from %s to %s", e.SessionID, e.From, e.To)
}

func (e *InvalidStateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// ProviderError wraps a failure from an external data provider. Kind is one
// of ErrSearchProvider, ErrBacklinkProvider or ErrContactProvider.
type ProviderError struct {
	Kind   error
	Target string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v (%s): %v", e.Kind, e.Target, e.Err)
}

func (e *ProviderError) Unwrap() []error { return []error{e.Kind, e.Err} }

// NewSearchProviderError, NewBacklinkProviderError, NewContactProviderError
// and NewLinkProviderError build ProviderErrors of the matching kind.
func NewSearchProviderError(target string, err error) *ProviderError {
	return &ProviderError{Kind: ErrSearchProvider, Target: target, Err: err}
}

func NewBacklinkProviderError(target string, err error) *ProviderError {
	return &ProviderError{Kind: ErrBacklinkProvider, Target: target, Err: err}
}

func NewContactProviderError(target string, err error) *ProviderError {
	return &ProviderError{Kind: ErrContactProvider, Target: target, Err: err}
}

func NewLinkProviderError(target string, err error) *ProviderError {
	return &ProviderError{Kind: ErrLinkProvider, Target: target, Err: err}
}

// PersistenceError wraps a store read or write failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }
