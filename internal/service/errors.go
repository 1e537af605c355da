package service

import "fmt"

// ResolutionError means a board, project, field or option the sync needed
// could not be located. Webhook processing logs it and still acknowledges
// receipt; outbound sync logs it and moves on.
type ResolutionError struct {
	Kind string
	Key  string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no %s found for %q", e.Kind, e.Key)
}
