package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrNotEPUB indicates the file is not a valid EPUB container.
	ErrNotEPUB = errors.New("not a valid EPUB")

	// ErrDRMProtected indicates the EPUB is encrypted and cannot be read.
	ErrDRMProtected = errors.New("EPUB is DRM protected")

	// ErrTooLarge indicates the file exceeds the configured import limit.
	ErrTooLarge = errors.New("file too large")

	// ErrNoContent indicates the EPUB produced no readable chapters.
	// Cover-only or image-only books fall here.
	ErrNoContent = errors.New("no readable content")
)
