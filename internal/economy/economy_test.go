package economy

import (
	"math"
	"math/rand"
	"testing"
)

const MaxDev = 999

func intPtr(v int) *int { return &v }

func TestPoliticsBonus(t *testing.T) {
	tests := []struct {
		name string
		pol  *int
		want float64
	}{
		{"no governor", nil, 0.5},
		{"zero pol", intPtr(0), 0.5},
		{"mid pol", intPtr(50), 1.0},
		{"max pol", intPtr(100), 1.5},
	}
	for _, tt := range tests {
		if got := PoliticsBonus(tt.pol); got != tt.want {
			t.Errorf("%s: PoliticsBonus = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMonthlyIncome(t *testing.T) {
	// The worked scenario: commerce=500, population=300000, pol=30
	// → floor((750+300)*0.8) = 840.
	if got := MonthlyIncome(500, 300000, intPtr(30)); got != 840 {
		t.Errorf("MonthlyIncome = %d, want 840", got)
	}

	// No governor halves the multiplier exactly.
	if got := MonthlyIncome(500, 300000, nil); got != 525 {
		t.Errorf("MonthlyIncome without governor = %d, want 525", got)
	}
}

func TestMonthlyIncomeMatchesFormula(t *testing.T) {
	for commerce := 0; commerce <= 999; commerce += 111 {
		for population := 1000; population <= 500000; population += 49900 {
			for pol := 0; pol <= 100; pol += 20 {
				want := int(math.Floor((float64(commerce)*1.5 + float64(population)/1000) * (float64(pol)/100 + 0.5)))
				got := MonthlyIncome(commerce, population, intPtr(pol))
				if got != want {
					t.Fatalf("MonthlyIncome(%d,%d,%d) = %d, want %d", commerce, population, pol, got, want)
				}
				if got < 0 {
					t.Fatalf("MonthlyIncome(%d,%d,%d) negative", commerce, population, pol)
				}
			}
		}
	}
}

func TestYearlyGrain(t *testing.T) {
	// agriculture=400, population=200000, pol=60 → (4000+1000)*1.1 = 5500.
	if got := YearlyGrain(400, 200000, intPtr(60)); got != 5500 {
		t.Errorf("YearlyGrain = %d, want 5500", got)
	}
	if got := YearlyGrain(400, 200000, nil); got != 2500 {
		t.Errorf("YearlyGrain without governor = %d, want 2500", got)
	}
}

func TestDevelopmentIncreaseBounds(t *testing.T) {
	for pol := 0; pol <= 100; pol += 5 {
		lo := pol/5 + 1
		hi := pol/5 + 5
		for roll := 1; roll <= 5; roll++ {
			got := DevelopmentIncrease(pol, roll)
			if got < lo || got > hi {
				t.Fatalf("DevelopmentIncrease(%d,%d) = %d, outside [%d,%d]", pol, roll, got, lo, hi)
			}
		}
	}
}

func TestRoll15Range(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		r := Roll15(rng)
		if r < 1 || r > 5 {
			t.Fatalf("Roll15 = %d, outside [1,5]", r)
		}
		seen[r] = true
	}
	if len(seen) != 5 {
		t.Errorf("Roll15 over 1000 draws hit %d distinct values, want 5", len(seen))
	}
}

func TestExecuteDevelopment(t *testing.T) {
	t.Run("insufficient gold", func(t *testing.T) {
		res := ExecuteDevelopment(99, 500, 80, MaxDev, 3)
		if res.Success {
			t.Fatal("expected failure with gold below cost")
		}
		if res.Reason != FailInsufficientGold {
			t.Errorf("Reason = %q, want %q", res.Reason, FailInsufficientGold)
		}
		if res.GoldSpent != 0 || res.Increase != 0 || res.NewValue != 500 {
			t.Errorf("failed development mutated outputs: %+v", res)
		}
	})

	t.Run("normal increase", func(t *testing.T) {
		res := ExecuteDevelopment(200, 500, 80, MaxDev, 3)
		if !res.Success {
			t.Fatalf("unexpected failure: %+v", res)
		}
		if res.GoldSpent != 100 {
			t.Errorf("GoldSpent = %d, want 100", res.GoldSpent)
		}
		if want := 80/5 + 3; res.Increase != want {
			t.Errorf("Increase = %d, want %d", res.Increase, want)
		}
		if res.NewValue != 500+res.Increase {
			t.Errorf("NewValue = %d, want %d", res.NewValue, 500+res.Increase)
		}
	})

	t.Run("clamped at max", func(t *testing.T) {
		res := ExecuteDevelopment(200, 998, 80, MaxDev, 5)
		if !res.Success {
			t.Fatalf("unexpected failure: %+v", res)
		}
		if res.NewValue != MaxDev {
			t.Errorf("NewValue = %d, want %d", res.NewValue, MaxDev)
		}
		if res.Increase != 1 {
			t.Errorf("clamped Increase = %d, want 1", res.Increase)
		}
	})
}

func TestRecruitmentSoldiers(t *testing.T) {
	// Worked scenario: lead=90, cha=40 → 1100.
	if got := RecruitmentSoldiers(90, 40); got != 1100 {
		t.Errorf("RecruitmentSoldiers(90,40) = %d, want 1100", got)
	}

	// Linear in each argument independently.
	for lead := 0; lead <= 100; lead += 10 {
		for cha := 0; cha <= 100; cha += 10 {
			if got, want := RecruitmentSoldiers(lead, cha), lead*10+cha*5; got != want {
				t.Fatalf("RecruitmentSoldiers(%d,%d) = %d, want %d", lead, cha, got, want)
			}
		}
	}
}

func TestLoyaltyDecrease(t *testing.T) {
	tests := []struct{ cha, want int }{
		{0, 5}, {19, 5}, {20, 4}, {40, 3}, {60, 2}, {79, 2}, {80, 1}, {100, 1},
	}
	for _, tt := range tests {
		if got := LoyaltyDecrease(tt.cha); got != tt.want {
			t.Errorf("LoyaltyDecrease(%d) = %d, want %d", tt.cha, got, tt.want)
		}
	}
}

func TestExecuteRecruitment(t *testing.T) {
	t.Run("worked scenario", func(t *testing.T) {
		res := ExecuteRecruitment(10000, 100000, 90, 40)
		if !res.Success {
			t.Fatalf("unexpected failure: %+v", res)
		}
		if res.Soldiers != 1100 || res.GoldSpent != 2200 || res.PopulationSpent != 1100 {
			t.Errorf("got soldiers=%d gold=%d pop=%d, want 1100/2200/1100",
				res.Soldiers, res.GoldSpent, res.PopulationSpent)
		}
		if res.LoyaltyLoss != 3 {
			t.Errorf("LoyaltyLoss = %d, want 3", res.LoyaltyLoss)
		}
	})

	t.Run("gold checked before population", func(t *testing.T) {
		// Both are short; gold must be the reported reason.
		res := ExecuteRecruitment(0, 0, 90, 40)
		if res.Success || res.Reason != FailInsufficientGold {
			t.Errorf("Reason = %q, want %q", res.Reason, FailInsufficientGold)
		}
	})

	t.Run("insufficient population", func(t *testing.T) {
		res := ExecuteRecruitment(10000, 500, 90, 40)
		if res.Success || res.Reason != FailInsufficientPopulation {
			t.Errorf("Reason = %q, want %q", res.Reason, FailInsufficientPopulation)
		}
		if res.GoldSpent != 0 || res.PopulationSpent != 0 {
			t.Errorf("failed recruitment reported spending: %+v", res)
		}
	})
}
