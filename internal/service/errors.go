package service

import "errors"

// Engine error taxonomy. Handlers map these onto HTTP statuses with
// errors.Is; services wrap them with context via fmt.Errorf and %w.
var (
	ErrNotFound        = errors.New("not found")
	ErrNotLinked       = errors.New("not linked")
	ErrInvalidInput    = errors.New("invalid input")
	ErrAlreadyResolved = errors.New("confirmation already processed")
	ErrExpired         = errors.New("confirmation expired")
	ErrConflict        = errors.New("conflicting concurrent change")
)
