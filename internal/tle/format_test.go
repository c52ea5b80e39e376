package tle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRoundTrip(t *testing.T) {
	pairs := [][2]string{
		{vanguardLine1, vanguardLine2},
		{issLine1, issLine2},
		{molniyaLine1, molniyaLine2},
		{gpsLine1, gpsLine2},
	}
	for _, p := range pairs {
		t.Run(p[0][2:7], func(t *testing.T) {
			el, err := ParseLines(p[0], p[1])
			require.NoError(t, err)

			line1, line2, err := Format(el)
			require.NoError(t, err)
			assert.Equal(t, p[0], line1)
			assert.Equal(t, p[1], line2)

			again, err := ParseLines(line1, line2)
			require.NoError(t, err)
			assert.Equal(t, el, again)
		})
	}
}

func TestFormatImpliedExponent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, " 00000-0"},
		{0.28098e-4, " 28098-4"},
		{-0.11606e-4, "-11606-4"},
		{1e-4, " 10000-3"},
		{1.2345, " 12345+1"},
		{0.999999, " 10000+1"},
	}
	for _, tt := range tests {
		got, err := formatImpliedExponent(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "value %g", tt.in)
	}
}

func TestFormatRejectsOutOfRange(t *testing.T) {
	el, err := ParseLines(issLine1, issLine2)
	require.NoError(t, err)

	bad := el
	bad.CatalogNumber = 100000
	_, _, err = Format(bad)
	assert.Error(t, err)

	bad = el
	bad.MeanMotionDot = 1.5
	_, _, err = Format(bad)
	assert.Error(t, err)

	bad = el
	bad.Eccentricity = 1
	_, _, err = Format(bad)
	assert.Error(t, err)
}
