package edgar

import "errors"

// Lookup and resolution failures. Callers branch on these with errors.Is;
// wrapping with fmt.Errorf("...: %w") keeps them matchable.
var (
	// ErrNotFound means a name, ticker or filing had no match.
	ErrNotFound = errors.New("not found")

	// ErrInvalidQuarter means a quarter outside 1..3 was requested.
	// Fourth-quarter results are filed as part of the annual report.
	ErrInvalidQuarter = errors.New("invalid quarter: must be 1, 2 or 3")

	// ErrNoAnchorAvailable means no annual report exists to anchor the fiscal calendar.
	ErrNoAnchorAvailable = errors.New("no annual report available to anchor fiscal year")

	// ErrInvalidIdentifier means a CIK cannot be rendered in 10 digits.
	ErrInvalidIdentifier = errors.New("invalid company identifier")
)
