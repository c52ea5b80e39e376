// Package timesys implements the UTC Julian date scale used by the parser,
// the propagator and the frame transforms.
//
// A JulianDate keeps the whole day and the seconds into that day apart so
// that adding a few seconds to an instant decades away from J2000 does not
// lose precision to the large day count.
package timesys

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// ErrInvalidDate is returned when calendar fields are out of range.
var ErrInvalidDate = errors.New("invalid date")

const (
	secondsPerDay = 86400.0

	// J2000 is the Julian Date of 2000-01-01 12:00:00.
	J2000 = 2451545.0
)

// Duration is a signed elapsed time in seconds.
type Duration float64

// Common durations.
const (
	Second Duration = 1
	Minute Duration = 60
	Hour   Duration = 3600
	Day    Duration = secondsPerDay
)

// Seconds returns d in seconds.
func (d Duration) Seconds() float64 { return float64(d) }

// Minutes returns d in minutes.
func (d Duration) Minutes() float64 { return float64(d) / 60.0 }

// Days returns d in days.
func (d Duration) Days() float64 { return float64(d) / secondsPerDay }

// Std converts d to a time.Duration, rounded to the nanosecond.
func (d Duration) Std() time.Duration {
	return time.Duration(math.Round(float64(d) * 1e9))
}

// FromStd converts a time.Duration.
func FromStd(d time.Duration) Duration {
	return Duration(d.Seconds())
}

// JulianDate is an instant on the UTC Julian day scale. The zero value is
// not meaningful; build one with FromCalendar, FromJD or FromTime.
type JulianDate struct {
	day  int     // JD of the preceding midnight is day - 0.5
	secs float64 // seconds since that midnight, in [0, 86400)
}

func normalize(day int, secs float64) JulianDate {
	if secs >= secondsPerDay || secs < 0 {
		shift := math.Floor(secs / secondsPerDay)
		day += int(shift)
		secs -= shift * secondsPerDay
		// Guard against secs landing on 86400 after the subtraction.
		if secs >= secondsPerDay {
			day++
			secs -= secondsPerDay
		}
	}
	return JulianDate{day: day, secs: secs}
}

// FromJD builds a JulianDate from a plain Julian Date.
func FromJD(jd float64) JulianDate {
	midnight := math.Floor(jd - 0.5)
	return normalize(int(midnight)+1, (jd-0.5-midnight)*secondsPerDay)
}

// FromCalendar returns the JulianDate of the given UTC calendar minute.
func FromCalendar(year, month, day, hour, minute int) (JulianDate, error) {
	return FromCalendarSeconds(year, month, day, hour, minute, 0)
}

// FromCalendarSeconds is FromCalendar with a seconds field in [0, 60).
func FromCalendarSeconds(year, month, day, hour, minute int, second float64) (JulianDate, error) {
	if month < 1 || month > 12 {
		return JulianDate{}, fmt.Errorf("%w: month %d out of range 1-12", ErrInvalidDate, month)
	}
	if dim := daysInMonth(year, month); day < 1 || day > dim {
		return JulianDate{}, fmt.Errorf("%w: day %d out of range 1-%d for %04d-%02d", ErrInvalidDate, day, dim, year, month)
	}
	if hour < 0 || hour > 23 {
		return JulianDate{}, fmt.Errorf("%w: hour %d out of range 0-23", ErrInvalidDate, hour)
	}
	if minute < 0 || minute > 59 {
		return JulianDate{}, fmt.Errorf("%w: minute %d out of range 0-59", ErrInvalidDate, minute)
	}
	if !(second >= 0 && second < 60) {
		return JulianDate{}, fmt.Errorf("%w: second %g out of range [0, 60)", ErrInvalidDate, second)
	}

	// CalendarGregorianToJD at an integral day lands on a half day.
	jd0 := julian.CalendarGregorianToJD(year, month, float64(day))
	return JulianDate{
		day:  int(math.Round(jd0 + 0.5)),
		secs: float64(hour)*3600 + float64(minute)*60 + second,
	}, nil
}

// FromTime converts a time.Time to a JulianDate. The time is taken in UTC.
func FromTime(t time.Time) JulianDate {
	t = t.UTC()
	// Fields come from a valid time.Time, so FromCalendar cannot fail.
	jd, _ := FromCalendar(t.Year(), int(t.Month()), t.Day(), 0, 0)
	secs := float64(t.Hour()*3600+t.Minute()*60+t.Second()) + float64(t.Nanosecond())/1e9
	return normalize(jd.day, secs)
}

func daysInMonth(year, month int) int {
	switch month {
	case 2:
		if julian.LeapYearGregorian(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// ToCalendar returns the UTC calendar fields of j.
func (j JulianDate) ToCalendar() (year, month, day, hour, minute int, second float64) {
	year, month, d := julian.JDToCalendar(float64(j.day) - 0.5)
	day = int(math.Floor(d + 0.5))

	hour = int(j.secs / 3600)
	minute = int((j.secs - float64(hour)*3600) / 60)
	second = j.secs - float64(hour)*3600 - float64(minute)*60
	return year, month, day, hour, minute, second
}

// Time converts j to a UTC time.Time, rounded to the nanosecond.
func (j JulianDate) Time() time.Time {
	y, m, d, _, _, _ := j.ToCalendar()
	midnight := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return midnight.Add(Duration(j.secs).Std())
}

// JD returns j as a single Julian Date. Precision is limited to that of one
// float64, roughly 40 microseconds in the current era.
func (j JulianDate) JD() float64 {
	return float64(j.day) - 0.5 + j.secs/secondsPerDay
}

// DaysSince returns the elapsed days from the plain Julian Date ref to j,
// computed without forming j's own Julian Date first.
func (j JulianDate) DaysSince(ref float64) float64 {
	whole := math.Floor(ref)
	return float64(j.day) - whole + (j.secs/secondsPerDay - 0.5 - (ref - whole))
}

// Add returns j shifted by d.
func (j JulianDate) Add(d Duration) JulianDate {
	return normalize(j.day, j.secs+float64(d))
}

// Sub returns the elapsed time j - k.
func (j JulianDate) Sub(k JulianDate) Duration {
	return Duration(float64(j.day-k.day)*secondsPerDay + (j.secs - k.secs))
}

// Before reports whether j is earlier than k.
func (j JulianDate) Before(k JulianDate) bool {
	return j.day < k.day || (j.day == k.day && j.secs < k.secs)
}

// After reports whether j is later than k.
func (j JulianDate) After(k JulianDate) bool {
	return k.Before(j)
}

// Equal reports whether j and k are the same instant.
func (j JulianDate) Equal(k JulianDate) bool {
	return j.day == k.day && j.secs == k.secs
}

// String formats j as RFC 3339 UTC with millisecond precision.
func (j JulianDate) String() string {
	return j.Time().Format("2006-01-02T15:04:05.000Z07:00")
}

// MarshalText implements encoding.TextMarshaler using RFC 3339.
func (j JulianDate) MarshalText() ([]byte, error) {
	return []byte(j.Time().Format(time.RFC3339Nano)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts RFC 3339
// and the shorter "2006-01-02T15:04" layout.
func (j *JulianDate) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*j = parsed
	return nil
}

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parse reads an instant in one of the accepted layouts. Strings without a
// zone are taken as UTC.
func Parse(s string) (JulianDate, error) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return FromTime(t), nil
		}
	}
	return JulianDate{}, fmt.Errorf("%w: cannot parse %q", ErrInvalidDate, s)
}
