package promo

import "errors"

// Failure taxonomy for coupon and discount evaluation. Handlers map these
// to HTTP statuses; the evaluators never touch the response layer.
var (
	ErrNotFound     = errors.New("promo code not found")
	ErrNotStarted   = errors.New("promo not started yet")
	ErrExpired      = errors.New("promo expired")
	ErrLimitReached = errors.New("promo usage limit reached")
	ErrBelowMinimum = errors.New("order total below minimum purchase")
)
