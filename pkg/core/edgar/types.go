// Package edgar holds the SEC EDGAR domain model: company identities, filing
// records, and the fiscal-calendar logic that maps a requested quarter to the
// quarterly report covering it.
package edgar

import (
	"fmt"
	"strings"
	"time"
)

// ArchivesBaseURL is the root of the EDGAR document archive.
const ArchivesBaseURL = "https://www.sec.gov/Archives/edgar/data"

// =============================================================================
// FILING TYPES
// =============================================================================

// FormType classifies a filing row.
type FormType int

const (
	FormOther FormType = iota
	FormAnnual
	FormQuarterly
)

// ParseFormType maps an EDGAR form string to a FormType. Only the exact
// "10-K" and "10-Q" forms count; amendments ("10-K/A") are FormOther.
func ParseFormType(form string) FormType {
	switch strings.TrimSpace(form) {
	case "10-K":
		return FormAnnual
	case "10-Q":
		return FormQuarterly
	default:
		return FormOther
	}
}

func (f FormType) String() string {
	switch f {
	case FormAnnual:
		return "10-K"
	case FormQuarterly:
		return "10-Q"
	default:
		return "other"
	}
}

// ReportDate is the period-of-report date of a filing.
type ReportDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// ParseReportDate parses an EDGAR "2006-01-02" date.
func ParseReportDate(s string) (ReportDate, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return ReportDate{}, fmt.Errorf("invalid report date %q: %w", s, err)
	}
	return ReportDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

// Before reports whether d is strictly earlier than o.
func (d ReportDate) Before(o ReportDate) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d ReportDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// FilingRecord is one row of a company's filing history.
type FilingRecord struct {
	Form            FormType   `json:"form"`
	ReportDate      ReportDate `json:"report_date"`
	AccessionNumber string     `json:"accession_number"` // e.g. "0001045810-21-000010"
	PrimaryDocument string     `json:"primary_document"` // e.g. "nvda-20210131.htm"
}

// FilingReference is a fetchable location for exactly one filing document.
type FilingReference struct {
	CIK        string     `json:"cik"`
	Accession  string     `json:"accession"` // separators stripped
	Document   string     `json:"document"`
	Form       FormType   `json:"-"`
	ReportDate ReportDate `json:"report_date"`
}

// NewFilingReference builds the reference for a record of the given company.
func NewFilingReference(cik string, rec FilingRecord) FilingReference {
	return FilingReference{
		CIK:        cik,
		Accession:  StripSeparators(rec.AccessionNumber),
		Document:   rec.PrimaryDocument,
		Form:       rec.Form,
		ReportDate: rec.ReportDate,
	}
}

// URL returns the archive URL:
// https://www.sec.gov/Archives/edgar/data/{cik}/{accession-no-dashes}/{document}
func (r FilingReference) URL() string {
	return r.URLWithBase(ArchivesBaseURL)
}

// URLWithBase builds the archive URL against a different archive root.
// The CIK path segment is unpadded, as EDGAR serves it.
func (r FilingReference) URLWithBase(base string) string {
	cik := strings.TrimLeft(r.CIK, "0")
	if cik == "" {
		cik = "0"
	}
	return fmt.Sprintf("%s/%s/%s/%s", strings.TrimRight(base, "/"), cik, r.Accession, r.Document)
}

// QuarterTarget is the report period a fiscal quarter's 10-Q is expected to cover.
type QuarterTarget struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// =============================================================================
// COMPANY TYPES
// =============================================================================

// CompanyIdentity is one entry of the SEC ticker registry.
type CompanyIdentity struct {
	CIK    int    `json:"cik"`
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// PaddedCIK returns the 10-digit form of the identity's CIK.
func (c CompanyIdentity) PaddedCIK() (string, error) {
	return PadCIK(c.CIK)
}
