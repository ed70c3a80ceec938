package services

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable means the backing store could not answer.
	ErrDataUnavailable    = errors.New("data unavailable")
	ErrSearchUnavailable  = fmt.Errorf("search unavailable: %w", ErrDataUnavailable)
	ErrRankingUnavailable = fmt.Errorf("ranking unavailable: %w", ErrDataUnavailable)
	ErrCatalogUnavailable = fmt.Errorf("catalog unavailable: %w", ErrDataUnavailable)

	ErrChatUnavailable = errors.New("chat relay unavailable")
)

// unavailable wraps a collaborator failure so errors.Is matches both kind and cause.
func unavailable(kind, cause error) error {
	return fmt.Errorf("%w: %w", kind, cause)
}
