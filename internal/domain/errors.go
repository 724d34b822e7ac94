// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrValidation indicates invalid input supplied by a caller.
var ErrValidation = errors.New("validation failed")

// ErrAlreadyClaimed indicates an incident already has a remediation claim or
// completion marker, so a second remediation must not start.
var ErrAlreadyClaimed = errors.New("incident already claimed")

// ErrQueueClosed indicates the background runner no longer accepts work.
var ErrQueueClosed = errors.New("runner is shutting down")
