// Package errdefs defines the error kinds shared across medibot components.
//
// Components wrap one of the sentinels with fmt.Errorf("%w: ...") so callers
// at a process or request boundary can classify a failure with errors.Is.
package errdefs

import "errors"

var (
	// ErrConfiguration is returned when credentials, paths, or other required
	// settings are missing or invalid.
	ErrConfiguration = errors.New("configuration error")

	// ErrIngestion is returned when reading or parsing corpus files fails.
	ErrIngestion = errors.New("ingestion error")

	// ErrService is returned when a remote store is unreachable or errors.
	ErrService = errors.New("service error")

	// ErrInference is returned when embedding or language model calls fail.
	ErrInference = errors.New("inference error")
)

// Kind returns a short label for the error kind of err, or "unknown".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrIngestion):
		return "ingestion"
	case errors.Is(err, ErrService):
		return "service"
	case errors.Is(err, ErrInference):
		return "inference"
	default:
		return "unknown"
	}
}

// IsRetryable reports whether err is a transient remote failure worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrService) && !errors.Is(err, ErrConfiguration)
}
