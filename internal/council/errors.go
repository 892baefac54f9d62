package council

import (
	"errors"
	"fmt"
	"strings"
)

var errNotRegistered = errors.New("backend not registered")

// AllProvidersFailedError reports that every draft backend failed, leaving
// nothing to rank or synthesize.
type AllProvidersFailedError struct {
	Backends []string
}

func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all draft backends failed: %s", strings.Join(e.Backends, ", "))
}

// SynthesisFailedError reports that drafting (and possibly ranking) succeeded
// but the final synthesis call did not. Distinct from AllProvidersFailedError
// so callers can tell "good drafts, no finish" from "nothing worked".
type SynthesisFailedError struct {
	Backend string
	Err     error
}

func (e *SynthesisFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("synthesis failed on %s: %v", e.Backend, e.Err)
	}
	return fmt.Sprintf("synthesis failed on %s: empty response", e.Backend)
}

func (e *SynthesisFailedError) Unwrap() error { return e.Err }
