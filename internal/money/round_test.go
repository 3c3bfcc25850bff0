package money

import "testing"

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{in: 33.333333, want: 33.33},
		{in: 1.005, want: 1.01},
		{in: -5.455, want: -5.46},
		{in: 195.00000000000003, want: 195},
		{in: 0, want: 0},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Fatalf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRoundPlaces(t *testing.T) {
	if got := Round(2.19999, 4); got != 2.2 {
		t.Fatalf("Round(2.19999, 4) = %v", got)
	}
}

func TestSum(t *testing.T) {
	if got := Sum(0.1, 0.2, 15); got != 15.3 {
		t.Fatalf("Sum = %v, want 15.3", got)
	}
	if got := Sum(); got != 0 {
		t.Fatalf("empty Sum = %v", got)
	}
}
