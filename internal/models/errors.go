package models

import "errors"

// Domain errors surfaced to callers. Business-rule rejections of a photo are
// not errors; they end as a REJECTED status with a reason code.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidFingerprint = errors.New("invalid fingerprint")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrBudgetExhausted    = errors.New("budget exhausted")
	ErrRateLimited        = errors.New("too many submissions")
	ErrOutsideFestival    = errors.New("outside festival area")
	ErrInvalidBinCode     = errors.New("invalid bin code")
)
