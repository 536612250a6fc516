package conic

import "errors"

var (
	ErrDimensionMismatch = errors.New("conic: dimension mismatch")
	ErrBadMatrix         = errors.New("conic: malformed CSC matrix")
	ErrDuplicateEntry    = errors.New("conic: duplicate CSC entry")
	ErrNotUpperTriangle  = errors.New("conic: P must store the upper triangle only")
	ErrUnsupportedCone   = errors.New("conic: unsupported cone")
	ErrUnknownBackend    = errors.New("conic: unknown direct solve method")
)
