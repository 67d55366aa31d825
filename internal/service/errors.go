package service

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound covers both genuinely missing rows and cross-owner
	// access, so existence never leaks across users.
	ErrNotFound = errors.New("not found")

	// ErrInvalid marks caller mistakes: missing file, bad mime type,
	// malformed parameters.
	ErrInvalid = errors.New("invalid request")

	// ErrModelRefusal means the restoration model answered without an
	// image (content safety, region restriction, empty response).
	ErrModelRefusal = errors.New("model returned no image")
)

// dbErr translates gorm's record-miss into the service taxonomy.
func dbErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
