package jobs

import (
	"errors"
	"fmt"
)

var (
	// ErrRegistryFull is returned by Add when every slot is occupied. A full
	// registry rejects new jobs rather than overwriting an existing slot.
	ErrRegistryFull = errors.New("job table full")

	// ErrJobNotFound is returned when no live job matches the given id.
	ErrJobNotFound = errors.New("job not found")
)

// InvalidIDError is returned when an operation is given a pid below 1, which
// can never identify a live job.
type InvalidIDError struct {
	id int
}

func (e InvalidIDError) Error() string {
	return fmt.Sprintf("invalid process id %d", e.id)
}

func NewInvalidIDError(id int) InvalidIDError {
	return InvalidIDError{id}
}
