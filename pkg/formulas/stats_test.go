package formulas

import (
	"math"
	"testing"
)

func TestDailyReturns(t *testing.T) {
	// Most-recent-first: 110 today, 100 yesterday, 80 before
	closes := []float64{110, 100, 80}
	returns := DailyReturns(closes)

	if len(returns) != 2 {
		t.Fatalf("Expected 2 returns, got %d", len(returns))
	}
	if math.Abs(returns[0]-0.10) > 1e-9 {
		t.Errorf("Expected most recent return 0.10, got %f", returns[0])
	}
	if math.Abs(returns[1]-0.25) > 1e-9 {
		t.Errorf("Expected older return 0.25, got %f", returns[1])
	}
}

func TestDailyReturns_SkipsNonPositiveCloses(t *testing.T) {
	closes := []float64{110, 0, 100}
	returns := DailyReturns(closes)

	// The 110/0 pair is dropped, the 0/100 pair survives
	if len(returns) != 1 {
		t.Fatalf("Expected 1 return, got %d", len(returns))
	}
	if math.Abs(returns[0]-(-1.0)) > 1e-9 {
		t.Errorf("Expected return -1.0, got %f", returns[0])
	}
}

func TestDailyReturns_TooShort(t *testing.T) {
	if got := DailyReturns([]float64{100}); len(got) != 0 {
		t.Errorf("Expected no returns for single price, got %d", len(got))
	}
	if got := DailyReturns(nil); len(got) != 0 {
		t.Errorf("Expected no returns for nil input, got %d", len(got))
	}
}

func TestStdDev_Sample(t *testing.T) {
	// Sample std dev of {2, 4, 4, 4, 5, 5, 7, 9} is ~2.138
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	got := StdDev(data)
	if math.Abs(got-2.13809) > 1e-4 {
		t.Errorf("Expected sample std dev ~2.138, got %f", got)
	}
}

func TestStdDev_Degenerate(t *testing.T) {
	if got := StdDev([]float64{5}); got != 0 {
		t.Errorf("Expected 0 for single value, got %f", got)
	}
	if got := StdDev(nil); got != 0 {
		t.Errorf("Expected 0 for nil, got %f", got)
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.015, -0.005, 0.02}
	daily := StdDev(returns)
	want := daily * math.Sqrt(252)

	got := AnnualizedVolatility(returns)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Expected %f, got %f", want, got)
	}
}

func TestCovariance_MismatchedLengths(t *testing.T) {
	if got := Covariance([]float64{1, 2, 3}, []float64{1, 2}); got != 0 {
		t.Errorf("Expected 0 for mismatched lengths, got %f", got)
	}
}

func TestCovariance_PerfectlyCorrelated(t *testing.T) {
	x := []float64{0.01, 0.02, -0.01, 0.03}
	y := []float64{0.02, 0.04, -0.02, 0.06} // exactly 2x

	cov := Covariance(x, y)
	varX := Variance(x)
	if math.Abs(cov/varX-2.0) > 1e-9 {
		t.Errorf("Expected cov/var ratio 2.0, got %f", cov/varX)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float64
	}{
		{150, 0, 100, 100},
		{-5, 0, 100, 0},
		{42, 0, 100, 42},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%f, %f, %f) = %f, want %f", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}
