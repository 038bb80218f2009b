package factory

import "errors"

var (
	ErrBadDimensions = errors.New("grid dimensions must be >= 1")
	ErrBadPeriod     = errors.New("tick period must be > 0")
	ErrBadSpawner    = errors.New("invalid spawner")
	ErrBadCommand    = errors.New("invalid command")
)
