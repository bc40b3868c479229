package explored

import (
	"errors"

	"github.com/1F47E/geo-explored/pkg/models"
)

var (
	// ErrMalformedPoint is returned for non-finite or out-of-range fixes
	ErrMalformedPoint = models.ErrMalformedPoint
	// ErrInvalidBoundingBox is returned by Query for unusable boxes
	ErrInvalidBoundingBox = models.ErrInvalidBoundingBox
	// ErrStorageUnavailable wraps store failures during hydration and flush.
	// Both are retried: hydration on the next read, flush on the next cycle.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrConcurrentMutation means two members of the set are equivalent,
	// which only happens if access to the set was not serialized
	ErrConcurrentMutation = errors.New("concurrent mutation conflict")
)
