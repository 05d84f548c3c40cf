package service

import (
	"errors"
)

// Business-rule failures. All of these are expected, caller-recoverable
// outcomes; services wrap them with context using fmt.Errorf and %w so
// callers match with errors.Is.
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrPollExpired         = errors.New("poll is closed")
	ErrPollNotExpired      = errors.New("poll is still active")
	ErrPollAlreadyResolved = errors.New("poll already resolved")
	ErrInvalidOption       = errors.New("option does not belong to poll")
	ErrInvalidAmount       = errors.New("bet amount must be at least 1")
	ErrAlreadyVoted        = errors.New("user already voted on this poll")
	ErrNotAuthorized       = errors.New("user is not authorized")
	ErrAlreadySpun         = errors.New("daily spin already claimed")
	ErrPollNotFound        = errors.New("poll not found")
	ErrUserNotFound        = errors.New("user not found")
)
