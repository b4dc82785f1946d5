package repository

import "errors"

var (
	ErrDuplicateBooking = errors.New("order for booking already exists")
	ErrOrderNotFound    = errors.New("order not found")
)
