package edgar

import "fmt"

// Period identifies a requested report: an annual report for Year, or fiscal
// quarter Quarter of Year when Quarter is non-zero.
type Period struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter,omitempty"`
}

// IsAnnual reports whether the period names a 10-K.
func (p Period) IsAnnual() bool { return p.Quarter == 0 }

func (p Period) String() string {
	if p.IsAnnual() {
		return fmt.Sprintf("FY%d", p.Year)
	}
	return fmt.Sprintf("%d Q%d", p.Year, p.Quarter)
}

// LocateAnnual finds the 10-K reported in year for the company with the given
// padded CIK.
func LocateAnnual(cik string, records []FilingRecord, year int) (FilingReference, error) {
	return NewLocator(cik, NewFilingIndex(records)).Annual(year)
}

// LocateQuarterly finds the 10-Q covering fiscal quarter `quarter` of `year`.
func LocateQuarterly(cik string, records []FilingRecord, year, quarter int) (FilingReference, error) {
	return NewLocator(cik, NewFilingIndex(records)).Quarterly(year, quarter)
}

// Locator answers filing lookups for one company.
type Locator struct {
	cik   string
	index *FilingIndex
}

// NewLocator binds an index to the company's padded CIK.
func NewLocator(cik string, index *FilingIndex) *Locator {
	return &Locator{cik: cik, index: index}
}

// Annual returns the reference to year's 10-K.
func (l *Locator) Annual(year int) (FilingReference, error) {
	rec, err := l.index.Annual(year)
	if err != nil {
		return FilingReference{}, err
	}
	return NewFilingReference(l.cik, rec), nil
}

// Quarterly returns the reference to the 10-Q for fiscal quarter `quarter` of `year`.
func (l *Locator) Quarterly(year, quarter int) (FilingReference, error) {
	target, err := ResolveQuarter(l.index, year, quarter)
	if err != nil {
		return FilingReference{}, err
	}
	rec, err := l.index.Quarterly(target.Month, target.Year)
	if err != nil {
		return FilingReference{}, fmt.Errorf("%d Q%d (report period %04d-%02d): %w",
			year, quarter, target.Year, target.Month, err)
	}
	return NewFilingReference(l.cik, rec), nil
}

// Locate dispatches on the period kind.
func (l *Locator) Locate(p Period) (FilingReference, error) {
	if p.IsAnnual() {
		return l.Annual(p.Year)
	}
	return l.Quarterly(p.Year, p.Quarter)
}

// Latest returns the newest 10-K or 10-Q on record and the period it covers.
// A 10-Q is numbered by the quarters elapsed since the 10-K before it and
// belongs to the fiscal year that 10-K opens.
func (l *Locator) Latest() (FilingReference, Period, error) {
	if _, ok := l.index.LatestAnnualYear(); !ok {
		return FilingReference{}, Period{}, fmt.Errorf("%w: no 10-K filings on record", ErrNoAnchorAvailable)
	}
	records := l.index.records
	for i, rec := range records {
		switch rec.Form {
		case FormAnnual:
			return NewFilingReference(l.cik, rec), Period{Year: rec.ReportDate.Year}, nil
		case FormQuarterly:
			for _, prior := range records[i+1:] {
				if prior.Form == FormAnnual {
					return NewFilingReference(l.cik, rec), quarterSince(prior.ReportDate, rec.ReportDate), nil
				}
			}
		}
	}
	return FilingReference{}, Period{}, fmt.Errorf("no recent 10-K or 10-Q: %w", ErrNotFound)
}

// quarterSince labels a quarterly report dated report against the fiscal
// year end fyEnd that precedes it. Missing 10-Ks roll the year forward.
func quarterSince(fyEnd, report ReportDate) Period {
	months := (report.Year*12 + report.Month) - (fyEnd.Year*12 + fyEnd.Month)
	n := (months + 1) / 3
	if n < 1 {
		n = 1
	}
	q := (n-1)%4 + 1
	if q > 3 {
		q = 3
	}
	return Period{Year: fyEnd.Year + 1 + (n-1)/4, Quarter: q}
}
