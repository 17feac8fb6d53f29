package league

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is the root of every validation failure.
	ErrInvalidInput = errors.New("invalid input")

	ErrUnknownTeam   = fmt.Errorf("%w: unknown team", ErrInvalidInput)
	ErrDuplicateTeam = fmt.Errorf("%w: duplicate team", ErrInvalidInput)
	ErrInvalidRating = fmt.Errorf("%w: rating must be finite", ErrInvalidInput)
)
