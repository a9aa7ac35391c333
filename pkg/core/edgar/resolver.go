package edgar

import (
	"errors"
	"fmt"
)

// Month offsets of each fiscal quarter's report, measured from the fiscal
// year end. Past offsets count back from the requested year's 10-K; future
// offsets count forward from the latest 10-K on file.
var (
	pastQuarterOffset   = map[int]int{1: 9, 2: 6, 3: 3}
	futureQuarterOffset = map[int]int{1: 3, 2: 6, 3: 9}
)

// ValidateQuarter rejects anything outside 1..3.
func ValidateQuarter(quarter int) error {
	if quarter < 1 || quarter > 3 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuarter, quarter)
	}
	return nil
}

// ResolveQuarter computes the report month and year of the 10-Q covering
// fiscal quarter `quarter` of `year`.
//
// The company's fiscal year end is read from its 10-K for `year`. When `year`
// is later than the newest 10-K in the index, the newest 10-K is used instead
// and the quarter is projected forward from it.
func ResolveQuarter(idx *FilingIndex, year, quarter int) (QuarterTarget, error) {
	if err := ValidateQuarter(quarter); err != nil {
		return QuarterTarget{}, err
	}

	latest, ok := idx.LatestAnnualYear()
	if !ok {
		return QuarterTarget{}, fmt.Errorf("%w: no 10-K filings on record", ErrNoAnchorAvailable)
	}

	future := year > latest
	anchorYear := year
	if future {
		anchorYear = latest
	}

	fyEnd, err := idx.AnnualReportDate(anchorYear)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return QuarterTarget{}, fmt.Errorf("%w: no 10-K for %d", ErrNoAnchorAvailable, anchorYear)
		}
		return QuarterTarget{}, err
	}

	if future {
		return projectForward(fyEnd.Month, year, quarter), nil
	}
	return countBack(fyEnd.Month, year, quarter), nil
}

func countBack(fyEndMonth, year, quarter int) QuarterTarget {
	month := fyEndMonth - pastQuarterOffset[quarter]
	if month < 1 {
		month += 12
		year--
	}
	return QuarterTarget{Month: month, Year: year}
}

func projectForward(fyEndMonth, year, quarter int) QuarterTarget {
	month := fyEndMonth + futureQuarterOffset[quarter]
	if month > 12 {
		month -= 12
		year++
	}
	return QuarterTarget{Month: month, Year: year}
}
