package service

import "errors"

// Sentinel errors shared by the service layer. Handlers translate them to
// HTTP status codes; everything else is a 500 with the detail logged only.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)
