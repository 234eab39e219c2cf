package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Backing store errors
	ErrDataFetch          = fmt.Errorf("taxonomy fetch failed")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("record not found")
	ErrLabelNotFound      = fmt.Errorf("label not found")
	ErrFlagNotFound       = fmt.Errorf("flag not found")
	ErrEventNotFound      = fmt.Errorf("game event not found")

	// Wizard errors
	ErrValidation   = fmt.Errorf("validation failed")
	ErrInvalidState = fmt.Errorf("invalid wizard state")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
