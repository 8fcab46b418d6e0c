package scoring

import "errors"

var (
	// ErrUnknownDiscipline is returned when a discipline has no use case.
	ErrUnknownDiscipline = errors.New("unknown discipline")
	// ErrInvalidReference is returned for a reference without a positive,
	// finite spread or for an unknown joint name.
	ErrInvalidReference = errors.New("invalid reference")
)
