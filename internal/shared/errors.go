package shared

import "fmt"

var (
	ErrInterrupted = fmt.Errorf("enrichment interrupted")

	// Configuration errors
	ErrInvalidConfig  = fmt.Errorf("invalid configuration")
	ErrConfiguration  = fmt.Errorf("configuration error")
	ErrEmptyInput     = fmt.Errorf("input contains no tracks")
	ErrMissingColumns = fmt.Errorf("missing required columns")

	// Credential errors
	ErrMissingCredentials    = fmt.Errorf("missing credentials")
	ErrCredentialUnavailable = fmt.Errorf("credential unavailable")
	ErrInvalidCredentials    = fmt.Errorf("credentials rejected by provider")

	// Lookup and transport errors
	ErrSourceMiss         = fmt.Errorf("no match from source")
	ErrTransport          = fmt.Errorf("transport failure")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Scraper errors
	ErrShowNotFound = fmt.Errorf("no episodes found for show")
	ErrNoTracks     = fmt.Errorf("no tracks found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
