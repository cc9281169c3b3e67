package constants

import "errors"

// CLI errors.
var (
	ErrNoClientSecret    = errors.New("client secret is required")
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrNothingToUpdate   = errors.New("no fields to update, pass at least one flag")
)
