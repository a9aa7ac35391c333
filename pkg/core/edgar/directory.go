package edgar

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// CompanyDirectory resolves tickers and company names to identities.
// It is built once from a registry snapshot and never modified.
type CompanyDirectory struct {
	byTicker map[string]CompanyIdentity
	byName   map[string]CompanyIdentity
	size     int
}

// NewCompanyDirectory indexes entries by ticker and by name. Entries without a
// positive CIK, a ticker or a name are skipped. When two entries share a ticker
// or a name, the earlier one wins.
func NewCompanyDirectory(entries []CompanyIdentity, logger *zap.Logger) *CompanyDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &CompanyDirectory{
		byTicker: make(map[string]CompanyIdentity, len(entries)),
		byName:   make(map[string]CompanyIdentity, len(entries)),
	}

	skipped, shadowed := 0, 0
	for _, e := range entries {
		e.Ticker = strings.TrimSpace(e.Ticker)
		e.Name = strings.TrimSpace(e.Name)
		if e.CIK <= 0 || e.Ticker == "" || e.Name == "" {
			skipped++
			logger.Debug("skipping malformed registry entry",
				zap.Int("cik", e.CIK), zap.String("ticker", e.Ticker), zap.String("name", e.Name))
			continue
		}
		if _, err := PadCIK(e.CIK); err != nil {
			skipped++
			logger.Debug("skipping registry entry", zap.Int("cik", e.CIK), zap.Error(err))
			continue
		}

		tk, nk := normalizeKey(e.Ticker), normalizeKey(e.Name)
		_, tickerTaken := d.byTicker[tk]
		_, nameTaken := d.byName[nk]
		if tickerTaken && nameTaken {
			shadowed++
			continue
		}
		if !tickerTaken {
			d.byTicker[tk] = e
		}
		if !nameTaken {
			d.byName[nk] = e
		}
		d.size++
	}

	if skipped > 0 || shadowed > 0 {
		logger.Warn("registry snapshot had unusable entries",
			zap.Int("skipped", skipped), zap.Int("duplicates", shadowed), zap.Int("loaded", d.size))
	}
	return d
}

// LookupByTicker finds a company by ticker, ignoring case.
func (d *CompanyDirectory) LookupByTicker(ticker string) (CompanyIdentity, error) {
	if c, ok := d.byTicker[normalizeKey(ticker)]; ok {
		return c, nil
	}
	return CompanyIdentity{}, fmt.Errorf("ticker %q: %w", ticker, ErrNotFound)
}

// LookupByName finds a company by its registered name, ignoring case.
func (d *CompanyDirectory) LookupByName(name string) (CompanyIdentity, error) {
	if c, ok := d.byName[normalizeKey(name)]; ok {
		return c, nil
	}
	return CompanyIdentity{}, fmt.Errorf("company name %q: %w", name, ErrNotFound)
}

// Lookup tries the query as a ticker first, then as a company name.
func (d *CompanyDirectory) Lookup(query string) (CompanyIdentity, error) {
	if c, err := d.LookupByTicker(query); err == nil {
		return c, nil
	}
	if c, err := d.LookupByName(query); err == nil {
		return c, nil
	}
	return CompanyIdentity{}, fmt.Errorf("company %q: %w", query, ErrNotFound)
}

// Len is the number of distinct identities loaded.
func (d *CompanyDirectory) Len() int { return d.size }

func normalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
