package service

import "errors"

// ErrChannelUnavailable means the broker did not acknowledge the booking
// event. Nothing durable exists at that point, so the request simply fails
// and no compensation is needed.
var ErrChannelUnavailable = errors.New("event channel unavailable")
