package reconcile

import "fmt"

// StateError reports a backend state string outside the expected resource
// lifecycle. It invalidates the state-machine assumptions for that
// resource, so its remaining operations are abandoned rather than retried.
type StateError struct {
	Resource string
	State    string
	Message  string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("prefix list %s reported unexpected state %q: %s", e.Resource, e.State, e.Message)
}
