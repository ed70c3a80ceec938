package geo

import (
	"math"
	"testing"
)

func TestDistanceKnownPair(t *testing.T) {
	// Eminönü -> Beşiktaş
	d := DistanceKm(41.0082, 28.9784, 41.0430, 29.0054)
	if math.Abs(d-4.3) > 0.5 {
		t.Fatalf("want ~4.3km, got %.3f", d)
	}
	euclid := math.Sqrt(math.Pow(41.0430-41.0082, 2)+math.Pow(29.0054-28.9784, 2)) * 111
	if math.Abs(d-euclid) < 0.2 {
		t.Fatalf("haversine %.3f should differ from degree approximation %.3f", d, euclid)
	}
}

func TestDistanceIdentityAndSymmetry(t *testing.T) {
	pts := [][2]float64{{41.0082, 28.9784}, {40.9917, 29.0270}, {-33.8688, 151.2093}, {0, 179.9}, {0, -179.9}}
	for _, a := range pts {
		if d := DistanceKm(a[0], a[1], a[0], a[1]); d != 0 {
			t.Fatalf("distance to self should be 0, got %v", d)
		}
		for _, b := range pts {
			ab := DistanceKm(a[0], a[1], b[0], b[1])
			ba := DistanceKm(b[0], b[1], a[0], a[1])
			if math.Abs(ab-ba) > 1e-9 {
				t.Fatalf("asymmetric: %v vs %v", ab, ba)
			}
		}
	}
}

func TestDistanceAcrossAntimeridian(t *testing.T) {
	d := DistanceKm(0, 179.9, 0, -179.9)
	if d > 25 {
		t.Fatalf("points 0.2 degrees apart across the antimeridian gave %.1fkm", d)
	}
}

func TestValidCoordinate(t *testing.T) {
	cases := []struct {
		lat, lng float64
		ok       bool
	}{
		{41.0, 29.0, true},
		{-90, 180, true},
		{91, 0, false},
		{0, -181, false},
		{math.NaN(), 0, false},
		{0, math.Inf(1), false},
	}
	for _, tc := range cases {
		if got := ValidCoordinate(tc.lat, tc.lng); got != tc.ok {
			t.Fatalf("ValidCoordinate(%v,%v)=%v want %v", tc.lat, tc.lng, got, tc.ok)
		}
	}
}
