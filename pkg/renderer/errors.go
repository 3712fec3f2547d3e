package renderer

import (
	"encoding/json"
	"fmt"
)

// errorRecordFields is the exact field set an in-page exception is reduced
// to before crossing back to the host. Richer exception semantics
// (prototypes, custom fields) do not survive the boundary.
var errorRecordFields = [...]string{"name", "message", "stack"}

// LayoutError is an exception from inside the page session, rebound to a
// native Go error once it has crossed the sandbox boundary.
type LayoutError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

// Error implements the error interface.
func (e *LayoutError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// RejectionError carries a rejection reason that did not match the
// {name, message, stack} record shape. The raw JSON is passed through
// unchanged for the caller to inspect.
type RejectionError struct {
	Raw json.RawMessage
}

// Error implements the error interface.
func (e *RejectionError) Error() string {
	return "diagram rejected: " + string(e.Raw)
}

// rehydrateReason reconstitutes a rejection reason received from the page
// into an error value. Reasons exposing exactly the three ErrorRecord
// fields become a *LayoutError; anything else is passed through as a
// *RejectionError.
func rehydrateReason(raw json.RawMessage) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) != len(errorRecordFields) {
		return &RejectionError{Raw: raw}
	}
	for _, f := range errorRecordFields {
		if _, ok := fields[f]; !ok {
			return &RejectionError{Raw: raw}
		}
	}

	var le LayoutError
	if err := json.Unmarshal(raw, &le); err != nil {
		return &RejectionError{Raw: raw}
	}
	return &le
}
