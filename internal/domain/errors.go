package domain

import (
	"errors"
	"fmt"
)

// Error classes returned by the prediction core and the constituent
// repositories. Callers match them with errors.Is; the wrapped message
// carries the detail.
var (
	// ErrOutOfDomain reports a coordinate outside the spatial coverage of a
	// constituent dataset.
	ErrOutOfDomain = errors.New("outside the data domain")

	// ErrUnknownConstituent reports a constituent name with no catalog entry.
	ErrUnknownConstituent = errors.New("unknown constituent")

	// ErrValidation reports malformed input: mismatched basis arrays,
	// out-of-range profile depths, non-positive water depth and so on.
	ErrValidation = errors.New("validation failed")
)

// CheckDomain returns an ErrOutOfDomain error such as
// "Longitude -10 is outside the data domain" when lon or lat falls outside
// the given bounds.
func CheckDomain(lon, lat, minLon, maxLon, minLat, maxLat float64) error {
	if !(lon >= minLon && lon <= maxLon) {
		return fmt.Errorf("Longitude %g is %w", lon, ErrOutOfDomain) //nolint:stylecheck // message mirrors the data domain axis name
	}
	if !(lat >= minLat && lat <= maxLat) {
		return fmt.Errorf("Latitude %g is %w", lat, ErrOutOfDomain) //nolint:stylecheck // message mirrors the data domain axis name
	}
	return nil
}
