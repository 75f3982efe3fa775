package domain

import "errors"

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrOutOfStock        = errors.New("medicine is out of stock")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrPaymentFailed     = errors.New("payment failed")
)
