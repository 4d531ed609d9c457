package permissions

import "fmt"

// NotFoundError reports that the proposal a computation was asked about
// does not exist. There is no meaningful permission answer for a
// nonexistent resource, so this surfaces to the caller instead of being
// folded into empty flags.
type NotFoundError struct {
	ResourceID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("proposal %s not found", e.ResourceID)
}
