package tle

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/timesys"
)

// ErrChecksum is wrapped by a ParseError when a line's check digit does not
// match its contents.
var ErrChecksum = errors.New("checksum mismatch")

// ParseError reports why a TLE was rejected.
type ParseError struct {
	Line   int    // 1 or 2; 0 when the problem spans both lines
	Field  string // offending field, empty for line-level problems
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("tle: ")
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "%s: ", e.Field)
	}
	b.WriteString(e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseLines parses and validates the two lines of an element set.
// Trailing whitespace and line terminators are ignored.
func ParseLines(line1, line2 string) (MeanElements, error) {
	line1 = strings.TrimRight(line1, "\r\n ")
	line2 = strings.TrimRight(line2, "\r\n ")

	if err := checkLine(1, line1); err != nil {
		return MeanElements{}, err
	}
	if err := checkLine(2, line2); err != nil {
		return MeanElements{}, err
	}

	var el MeanElements
	if err := decodeLine1(line1, &el); err != nil {
		return MeanElements{}, err
	}
	catalog2, err := atoiField(line2, 2, 7)
	if err != nil {
		return MeanElements{}, fieldError(2, "catalog number", err)
	}
	if catalog2 != el.CatalogNumber {
		return MeanElements{}, &ParseError{
			Reason: fmt.Sprintf("catalog number mismatch: line 1 has %d, line 2 has %d", el.CatalogNumber, catalog2),
		}
	}
	if err := decodeLine2(line2, &el); err != nil {
		return MeanElements{}, err
	}
	return el, nil
}

// checkLine validates length, the line-number marker and the checksum.
func checkLine(n int, line string) error {
	if len(line) != LineLength {
		return &ParseError{Line: n, Reason: fmt.Sprintf("length %d, expected %d", len(line), LineLength)}
	}
	if want := byte('0' + n); line[0] != want {
		return &ParseError{Line: n, Reason: fmt.Sprintf("must start with '%c', got '%c'", want, line[0])}
	}
	if line[1] != ' ' {
		return &ParseError{Line: n, Reason: "column 2 must be blank"}
	}
	check := line[LineLength-1]
	if check < '0' || check > '9' {
		return &ParseError{Line: n, Field: "checksum", Reason: fmt.Sprintf("check digit %q is not a digit", check)}
	}
	if sum := Checksum(line); int(check-'0') != sum {
		return &ParseError{
			Line:   n,
			Field:  "checksum",
			Reason: fmt.Sprintf("computed %d, line says %c", sum, check),
			Err:    ErrChecksum,
		}
	}
	return nil
}

// Checksum returns the modulo-10 check digit of the first 68 columns of a
// TLE line: the sum of all digits, with each '-' counting as 1.
func Checksum(line string) int {
	sum := 0
	for i := 0; i < len(line) && i < LineLength-1; i++ {
		switch c := line[i]; {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

func decodeLine1(line string, el *MeanElements) error {
	var err error

	if el.CatalogNumber, err = atoiField(line, 2, 7); err != nil {
		return fieldError(1, "catalog number", err)
	}
	el.Classification = line[7]
	el.Designator = strings.TrimSpace(line[9:17])

	if el.Epoch, err = parseEpoch(line[18:32]); err != nil {
		return fieldError(1, "epoch", err)
	}
	if el.MeanMotionDot, err = floatField(line, 33, 43); err != nil {
		return fieldError(1, "mean motion derivative", err)
	}
	if el.MeanMotionDDot, err = impliedExponent(line[44:52]); err != nil {
		return fieldError(1, "mean motion second derivative", err)
	}
	if el.BStar, err = impliedExponent(line[53:61]); err != nil {
		return fieldError(1, "bstar", err)
	}
	if el.EphemerisType, err = atoiFieldDefault(line, 62, 63); err != nil {
		return fieldError(1, "ephemeris type", err)
	}
	if el.ElementSetNumber, err = atoiFieldDefault(line, 64, 68); err != nil {
		return fieldError(1, "element set number", err)
	}
	return nil
}

func decodeLine2(line string, el *MeanElements) error {
	var err error

	if el.Inclination, err = floatField(line, 8, 16); err != nil {
		return fieldError(2, "inclination", err)
	}
	if el.Inclination < 0 || el.Inclination > 180 {
		return &ParseError{Line: 2, Field: "inclination", Reason: fmt.Sprintf("%g outside [0, 180]", el.Inclination)}
	}
	if el.RAAN, err = angleField(line, 17, 25); err != nil {
		return fieldError(2, "right ascension of ascending node", err)
	}

	digits := line[26:33]
	if strings.TrimLeft(digits, "0123456789") != "" {
		return &ParseError{Line: 2, Field: "eccentricity", Reason: fmt.Sprintf("%q is not an implied-decimal fraction", digits)}
	}
	if el.Eccentricity, err = strconv.ParseFloat("0."+digits, 64); err != nil {
		return fieldError(2, "eccentricity", err)
	}

	if el.ArgPerigee, err = angleField(line, 34, 42); err != nil {
		return fieldError(2, "argument of perigee", err)
	}
	if el.MeanAnomaly, err = angleField(line, 43, 51); err != nil {
		return fieldError(2, "mean anomaly", err)
	}
	if el.MeanMotion, err = floatField(line, 52, 63); err != nil {
		return fieldError(2, "mean motion", err)
	}
	if !(el.MeanMotion > 0) {
		return &ParseError{Line: 2, Field: "mean motion", Reason: fmt.Sprintf("%g must be positive", el.MeanMotion)}
	}
	if el.RevolutionNum, err = atoiFieldDefault(line, 63, 68); err != nil {
		return fieldError(2, "revolution number", err)
	}
	return nil
}

func fieldError(line int, field string, err error) error {
	return &ParseError{Line: line, Field: field, Reason: "malformed", Err: err}
}

func atoiField(line string, from, to int) (int, error) {
	s := strings.TrimSpace(line[from:to])
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "columns %d-%d %q", from+1, to, line[from:to])
	}
	return n, nil
}

// atoiFieldDefault is atoiField for fields that are blank in some sources.
func atoiFieldDefault(line string, from, to int) (int, error) {
	if strings.TrimSpace(line[from:to]) == "" {
		return 0, nil
	}
	return atoiField(line, from, to)
}

func floatField(line string, from, to int) (float64, error) {
	s := strings.TrimSpace(line[from:to])
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "columns %d-%d %q", from+1, to, line[from:to])
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, pkgerrors.Errorf("columns %d-%d %q is not finite", from+1, to, line[from:to])
	}
	return v, nil
}

func angleField(line string, from, to int) (float64, error) {
	v, err := floatField(line, from, to)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 360 {
		return 0, pkgerrors.Errorf("%g outside [0, 360]", v)
	}
	return v, nil
}

// impliedExponent decodes the packed "±NNNNN±E" fields, e.g. " 28098-4"
// is 0.28098e-4.
func impliedExponent(field string) (float64, error) {
	s := strings.TrimSpace(field)
	if s == "" {
		return 0, nil
	}
	if len(s) < 3 {
		return 0, pkgerrors.Errorf("%q too short for mantissa and exponent", field)
	}

	sign := 1.0
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}

	mantissa, exponent := s[:len(s)-2], s[len(s)-2:]
	if strings.TrimLeft(mantissa, "0123456789") != "" {
		return 0, pkgerrors.Errorf("mantissa %q is not numeric", mantissa)
	}
	if exponent[0] != '-' && exponent[0] != '+' && exponent[0] != ' ' && (exponent[0] < '0' || exponent[0] > '9') {
		return 0, pkgerrors.Errorf("exponent %q has no sign", exponent)
	}
	exp, err := strconv.Atoi(strings.Replace(exponent, " ", "+", 1))
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "exponent %q", exponent)
	}
	m, err := strconv.ParseFloat("0."+mantissa, 64)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "mantissa %q", mantissa)
	}
	return sign * m * math.Pow10(exp), nil
}

// parseEpoch converts the YYDDD.DDDDDDDD epoch field. Years 57-99 are
// 1957-1999 and 00-56 are 2000-2056; the day of year is 1-based.
func parseEpoch(field string) (timesys.JulianDate, error) {
	s := strings.TrimSpace(field)
	if len(s) < 5 {
		return timesys.JulianDate{}, pkgerrors.Errorf("epoch %q too short", field)
	}

	yy, err := strconv.Atoi(strings.TrimSpace(s[:2]))
	if err != nil {
		return timesys.JulianDate{}, pkgerrors.Wrapf(err, "epoch year %q", s[:2])
	}
	year := 2000 + yy
	if yy >= 57 {
		year = 1900 + yy
	}

	doy, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return timesys.JulianDate{}, pkgerrors.Wrapf(err, "epoch day %q", s[2:])
	}
	daysInYear := 365.0
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		daysInYear = 366
	}
	if doy < 1 || doy >= daysInYear+1 {
		return timesys.JulianDate{}, pkgerrors.Errorf("epoch day %g outside year %d", doy, year)
	}

	jan1, err := timesys.FromCalendar(year, 1, 1, 0, 0)
	if err != nil {
		return timesys.JulianDate{}, err
	}
	return jan1.Add(timesys.Duration((doy - 1) * 86400)), nil
}
