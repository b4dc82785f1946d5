package inventory

import "errors"

var (
	ErrEventNotFound        = errors.New("event not found in inventory")
	ErrInsufficientCapacity = errors.New("insufficient inventory capacity")
)
