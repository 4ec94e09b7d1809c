package session

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrUnauthorized   = errors.New("unauthorized")
)
