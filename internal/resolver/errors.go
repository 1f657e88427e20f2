package resolver

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTerm is returned when Resolve gets a blank search term.
	ErrEmptyTerm = errors.New("search term is required")

	// ErrNotFound means no search variant returned a doctor.
	ErrNotFound = errors.New("no doctor matched the search")

	// ErrNoSlotsFound means every clinic candidate was probed without a usable
	// availability response.
	ErrNoSlotsFound = errors.New("no clinic returned availability for the doctor")

	// ErrInvalidSelection is matched by *InvalidSelectionError.
	ErrInvalidSelection = errors.New("invalid selection")
)

// InvalidSelectionError names the valid 1-based range.
type InvalidSelectionError struct {
	Index int
	Min   int
	Max   int
}

func (e *InvalidSelectionError) Error() string {
	if e.Max < e.Min {
		return fmt.Sprintf("invalid selection %d: there are no doctors to choose from", e.Index)
	}
	return fmt.Sprintf("invalid selection %d: choose a number between %d and %d", e.Index, e.Min, e.Max)
}

func (e *InvalidSelectionError) Is(target error) bool {
	return target == ErrInvalidSelection
}
