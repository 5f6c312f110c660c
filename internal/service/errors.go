package service

import "errors"

// Sentinel errors for the calculation boundary. Handlers map these onto
// 4xx responses; anything else is a 500.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnknownCountry = errors.New("unknown country")
	ErrRateNotFound   = errors.New("rate not found")
)
