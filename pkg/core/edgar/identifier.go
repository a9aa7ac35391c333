package edgar

import (
	"fmt"
	"strconv"
	"strings"
)

// CIKWidth is the fixed width SEC uses for CIKs in submission URLs.
const CIKWidth = 10

// PadCIK renders a CIK as a 10-digit zero-padded string, e.g. 1045810 -> "0001045810".
func PadCIK(cik int) (string, error) {
	if cik < 0 {
		return "", fmt.Errorf("%w: negative CIK %d", ErrInvalidIdentifier, cik)
	}
	digits := strconv.Itoa(cik)
	if len(digits) > CIKWidth {
		return "", fmt.Errorf("%w: CIK %s exceeds %d digits", ErrInvalidIdentifier, digits, CIKWidth)
	}
	return strings.Repeat("0", CIKWidth-len(digits)) + digits, nil
}

// StripSeparators removes the dashes from an accession number
// ("0001045810-21-000010" -> "000104581021000010"), as used in archive paths.
func StripSeparators(accession string) string {
	return strings.ReplaceAll(accession, "-", "")
}
