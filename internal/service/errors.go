package service

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidRange = errors.New("invalid range")
	ErrInvalidTrip  = errors.New("invalid trip report")
)
