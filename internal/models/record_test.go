package models

import (
	"math"
	"testing"
)

func TestValidateCoordinates(t *testing.T) {
	cases := []struct {
		name     string
		lat, lng float64
		wantErr  bool
	}{
		{"bangkok", 13.75, 100.5, false},
		{"extremes", -90, 180, false},
		{"zero is a real coordinate", 0, 0, false},
		{"lat too big", 90.01, 0, true},
		{"lng too small", 0, -180.5, true},
		{"nan", math.NaN(), 0, true},
		{"inf", 0, math.Inf(1), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCoordinates(tc.lat, tc.lng)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateCoordinates(%v, %v) = %v, wantErr %v", tc.lat, tc.lng, err, tc.wantErr)
			}
		})
	}
}

func TestValidateTitle(t *testing.T) {
	if err := ValidateTitle("Building A"); err != nil {
		t.Errorf("valid title rejected: %v", err)
	}
	for _, bad := range []string{"", "   ", "\t\n"} {
		if err := ValidateTitle(bad); err == nil {
			t.Errorf("ValidateTitle(%q) accepted blank input", bad)
		}
	}
}

func TestPending(t *testing.T) {
	if (&Record{Status: StatusComplete}).Pending() {
		t.Error("complete record reported pending")
	}
	if !(&Record{Status: "in progress"}).Pending() {
		t.Error("non-complete record not pending")
	}
	if !(&Record{}).Pending() {
		t.Error("empty status should count as pending")
	}
}

func TestThemeToggleInvolution(t *testing.T) {
	if ThemeLight.Toggle() != ThemeDark {
		t.Error("light did not toggle to dark")
	}
	for _, start := range []Theme{ThemeLight, ThemeDark} {
		if start.Toggle().Toggle() != start {
			t.Errorf("toggle(toggle(%s)) != %s", start, start)
		}
	}
}

func TestSampleLocation(t *testing.T) {
	loc := LocationSample{Latitude: 1.5, Longitude: -2.5}.Location()
	c, ok := loc.Coordinate()
	if !ok || c.Latitude != 1.5 || c.Longitude != -2.5 {
		t.Errorf("sample location = %+v", loc)
	}
}
