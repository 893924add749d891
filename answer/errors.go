package answer

import "errors"

var (
	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrGeneratorRequired is returned when a generator is not provided.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrEmptyQuestion is returned for a blank question.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrInvalidTone is returned for an unknown tone.
	ErrInvalidTone = errors.New("invalid tone")

	// ErrInvalidCitationStyle is returned for an unknown citation style.
	ErrInvalidCitationStyle = errors.New("invalid citation style")

	// ErrInvalidMaxTokens is returned when max tokens is not positive.
	ErrInvalidMaxTokens = errors.New("max tokens must be positive")

	// ErrInvalidMaxBullets is returned when max bullets is not positive.
	ErrInvalidMaxBullets = errors.New("max bullets must be positive")

	// ErrInvalidTemperature is returned for a temperature outside [0,2].
	ErrInvalidTemperature = errors.New("temperature must be in [0,2]")

	// ErrInvalidTimeout is returned for a negative generation timeout.
	ErrInvalidTimeout = errors.New("timeout cannot be negative")
)
