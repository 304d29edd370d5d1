package types

import "errors"

var (
	ErrInvalidId  = errors.New("invalid record id")
	ErrNotFound   = errors.New("not found")
	ErrNoDataset  = errors.New("no dataset loaded")
	ErrSuperseded = errors.New("request superseded")
)
