package edgar

import (
	"fmt"
	"sort"
)

// FilterByForm returns the records of the given form, preserving order.
func FilterByForm(records []FilingRecord, form FormType) []FilingRecord {
	out := make([]FilingRecord, 0, len(records))
	for _, r := range records {
		if r.Form == form {
			out = append(out, r)
		}
	}
	return out
}

// FindAnnualReportDate returns the report date of the first 10-K whose report
// year is year, scanning in the given order.
func FindAnnualReportDate(records []FilingRecord, year int) (ReportDate, error) {
	rec, err := FindAnnualReport(records, year)
	if err != nil {
		return ReportDate{}, err
	}
	return rec.ReportDate, nil
}

// FindAnnualReport returns the first 10-K whose report year is year.
func FindAnnualReport(records []FilingRecord, year int) (FilingRecord, error) {
	for _, r := range records {
		if r.Form == FormAnnual && r.ReportDate.Year == year {
			return r, nil
		}
	}
	return FilingRecord{}, fmt.Errorf("10-K for %d: %w", year, ErrNotFound)
}

// FindQuarterlyReport returns the first 10-Q whose report month and year
// both match, scanning in the given order.
func FindQuarterlyReport(records []FilingRecord, month, year int) (FilingRecord, error) {
	for _, r := range records {
		if r.Form == FormQuarterly && r.ReportDate.Year == year && r.ReportDate.Month == month {
			return r, nil
		}
	}
	return FilingRecord{}, fmt.Errorf("10-Q for %04d-%02d: %w", year, month, ErrNotFound)
}

// FilingIndex is a company's filing history ordered most recent first.
// Lookups on the index return the most recent match.
type FilingIndex struct {
	records []FilingRecord
}

// NewFilingIndex copies records and sorts them by report date, descending.
// The sort is stable, so rows sharing a report date keep their input order.
func NewFilingIndex(records []FilingRecord) *FilingIndex {
	sorted := make([]FilingRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[j].ReportDate.Before(sorted[i].ReportDate)
	})
	return &FilingIndex{records: sorted}
}

// Records returns a copy of the ordered records.
func (idx *FilingIndex) Records() []FilingRecord {
	out := make([]FilingRecord, len(idx.records))
	copy(out, idx.records)
	return out
}

func (idx *FilingIndex) Len() int { return len(idx.records) }

// Annual returns the most recent 10-K reported in year.
func (idx *FilingIndex) Annual(year int) (FilingRecord, error) {
	return FindAnnualReport(idx.records, year)
}

// AnnualReportDate returns the fiscal-year-end date of year's 10-K.
func (idx *FilingIndex) AnnualReportDate(year int) (ReportDate, error) {
	return FindAnnualReportDate(idx.records, year)
}

// Quarterly returns the most recent 10-Q reported in the given month.
func (idx *FilingIndex) Quarterly(month, year int) (FilingRecord, error) {
	return FindQuarterlyReport(idx.records, month, year)
}

// LatestAnnualYear is the report year of the newest 10-K, if any.
func (idx *FilingIndex) LatestAnnualYear() (int, bool) {
	for _, r := range idx.records {
		if r.Form == FormAnnual {
			return r.ReportDate.Year, true
		}
	}
	return 0, false
}
