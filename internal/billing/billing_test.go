package billing

import "testing"

func TestOverageCost(t *testing.T) {
	tests := []struct {
		name        string
		monthKwh    float64
		kwh         float64
		includedKwh float64
		extraCents  int64
		want        int64
	}{
		{
			// 90 + 20 при лимите 100: оплачиваются только 10 кВт·ч сверхлимита.
			name:        "crosses allowance",
			monthKwh:    90,
			kwh:         20,
			includedKwh: 100,
			extraCents:  60000,
			want:        600000,
		},
		{
			name:        "within allowance",
			monthKwh:    50,
			kwh:         30,
			includedKwh: 100,
			extraCents:  60000,
			want:        0,
		},
		{
			name:        "exactly at allowance",
			monthKwh:    80,
			kwh:         20,
			includedKwh: 100,
			extraCents:  60000,
			want:        0,
		},
		{
			name:        "fractional excess",
			monthKwh:    99.5,
			kwh:         1,
			includedKwh: 100,
			extraCents:  60000,
			want:        30000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OverageCost(tt.monthKwh, tt.kwh, tt.includedKwh, tt.extraCents)
			if got != tt.want {
				t.Fatalf("OverageCost = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFlatCost(t *testing.T) {
	if got := FlatCost(10); got != 500000 {
		t.Fatalf("FlatCost(10) = %d, want 500000", got)
	}
	if got := FlatCost(0); got != 0 {
		t.Fatalf("FlatCost(0) = %d, want 0", got)
	}
	if got := FlatCost(2.5); got != 125000 {
		t.Fatalf("FlatCost(2.5) = %d, want 125000", got)
	}
}

func TestRewardPoints(t *testing.T) {
	tests := []struct {
		amountCents int64
		want        int64
	}{
		{PesosToCents(5000), 5},
		{PesosToCents(999), 0},
		{PesosToCents(1000), 1},
		{PesosToCents(2499), 2},
		{0, 0},
		{-100, 0},
	}

	for _, tt := range tests {
		if got := RewardPoints(tt.amountCents); got != tt.want {
			t.Errorf("RewardPoints(%d) = %d, want %d", tt.amountCents, got, tt.want)
		}
	}
}

func TestCentsConversion(t *testing.T) {
	if got := PesosToCents(1.5); got != 150 {
		t.Fatalf("PesosToCents(1.5) = %d, want 150", got)
	}
	if got := CentsToPesos(150); got != 1.5 {
		t.Fatalf("CentsToPesos(150) = %v, want 1.5", got)
	}
}
