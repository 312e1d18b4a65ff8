package domain

import "errors"

var (
	ErrValidation      = errors.New("invalid event")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrMalformedBody   = errors.New("malformed request body")
)
