package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrMissingGeometry = errors.New("place details: missing geometry location")
)
