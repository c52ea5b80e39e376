package tle

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/timesys"
)

// Format encodes el as the two fixed-width TLE lines, recomputing both
// checksums. Lines produced from a parsed TLE reproduce the original
// whenever the source used zero-padded fields and "-0" zero exponents.
func Format(el MeanElements) (line1, line2 string, err error) {
	epoch, err := formatEpoch(el.Epoch)
	if err != nil {
		return "", "", err
	}
	ndot, err := formatDecimal(el.MeanMotionDot)
	if err != nil {
		return "", "", errors.Wrap(err, "mean motion derivative")
	}
	nddot, err := formatImpliedExponent(el.MeanMotionDDot)
	if err != nil {
		return "", "", errors.Wrap(err, "mean motion second derivative")
	}
	bstar, err := formatImpliedExponent(el.BStar)
	if err != nil {
		return "", "", errors.Wrap(err, "bstar")
	}
	if el.CatalogNumber < 0 || el.CatalogNumber > 99999 {
		return "", "", errors.Errorf("catalog number %d does not fit five digits", el.CatalogNumber)
	}
	if el.MeanMotion <= 0 || el.MeanMotion >= 100 {
		return "", "", errors.Errorf("mean motion %g does not fit the field", el.MeanMotion)
	}
	if el.Eccentricity < 0 || el.Eccentricity >= 1 {
		return "", "", errors.Errorf("eccentricity %g outside [0, 1)", el.Eccentricity)
	}
	class := el.Classification
	if class == 0 {
		class = 'U'
	}

	var b strings.Builder
	fmt.Fprintf(&b, "1 %05d%c %-8s %s %s %s %s %d %4d",
		el.CatalogNumber, class, truncate(el.Designator, 8), epoch,
		ndot, nddot, bstar, el.EphemerisType%10, el.ElementSetNumber%10000)
	line1 = withChecksum(b.String())

	b.Reset()
	fmt.Fprintf(&b, "2 %05d %8.4f %8.4f %07d %8.4f %8.4f %11.8f%5d",
		el.CatalogNumber, el.Inclination, el.RAAN,
		int(math.Round(el.Eccentricity*1e7)),
		el.ArgPerigee, el.MeanAnomaly, el.MeanMotion, el.RevolutionNum%100000)
	line2 = withChecksum(b.String())

	if len(line1) != LineLength || len(line2) != LineLength {
		return "", "", errors.Errorf("encoded lines have lengths %d and %d", len(line1), len(line2))
	}
	return line1, line2, nil
}

func withChecksum(body string) string {
	return body + string(rune('0'+Checksum(body)))
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func formatEpoch(epoch timesys.JulianDate) (string, error) {
	year, _, _, _, _, _ := epoch.ToCalendar()
	if year < 1957 || year > 2056 {
		return "", errors.Errorf("epoch year %d outside 1957-2056", year)
	}
	jan1, err := timesys.FromCalendar(year, 1, 1, 0, 0)
	if err != nil {
		return "", err
	}
	doy := 1 + epoch.Sub(jan1).Days()
	return fmt.Sprintf("%02d%012.8f", year%100, doy), nil
}

// formatDecimal renders the signed ".NNNNNNNN" first-derivative field.
func formatDecimal(v float64) (string, error) {
	digits := int64(math.Round(math.Abs(v) * 1e8))
	if digits >= 1e8 {
		return "", errors.Errorf("%g does not fit the field", v)
	}
	sign := ' '
	if v < 0 && digits != 0 {
		sign = '-'
	}
	return fmt.Sprintf("%c.%08d", sign, digits), nil
}

// formatImpliedExponent renders v in the packed "±NNNNN±E" form.
func formatImpliedExponent(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", errors.Errorf("%g is not finite", v)
	}
	abs := math.Abs(v)
	if abs < 1e-15 {
		return " 00000-0", nil
	}

	exp := int(math.Floor(math.Log10(abs))) + 1
	mantissa := int64(math.Round(abs / math.Pow10(exp) * 1e5))
	if mantissa >= 100000 {
		mantissa /= 10
		exp++
	}
	if mantissa == 0 {
		return " 00000-0", nil
	}
	if exp < -9 || exp > 9 {
		return "", errors.Errorf("%g exponent out of range", v)
	}

	sign := ' '
	if v < 0 {
		sign = '-'
	}
	expSign := '-'
	if exp >= 0 {
		expSign = '+'
	}
	if exp < 0 {
		exp = -exp
	}
	return fmt.Sprintf("%c%05d%c%d", sign, mantissa, expSign, exp), nil
}
