package combat

import (
	"math"
	"math/rand"
	"testing"
)

func TestAttackPowerScalesLinearlyWithTroops(t *testing.T) {
	base := AttackPower(1000, 80, 90)
	for mult := 2; mult <= 10; mult++ {
		got := AttackPower(1000*mult, 80, 90)
		want := base * float64(mult)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("AttackPower(%d troops) = %v, want %v", 1000*mult, got, want)
		}
	}
}

func TestDefensePowerZeroTroopsEqualsCityDefense(t *testing.T) {
	for _, def := range []int{0, 30, 100} {
		if got := DefensePower(0, 90, 80, def); got != float64(def) {
			t.Errorf("DefensePower(troops=0, cityDefense=%d) = %v, want %v", def, got, float64(def))
		}
	}
}

func TestDefensePowerScalesLinearlyWithTroops(t *testing.T) {
	// Subtract the constant wall term before comparing ratios.
	const wall = 50
	base := DefensePower(1000, 80, 60, wall) - wall
	for mult := 2; mult <= 10; mult++ {
		got := DefensePower(1000*mult, 80, 60, wall) - wall
		want := base * float64(mult)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("garrison term at %d troops = %v, want %v", 1000*mult, got, want)
		}
	}
}

func TestDamageBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		atk := rng.Float64() * 10000
		def := rng.Float64() * 10000
		roll := 0.9 + rng.Float64()*0.2
		got := Damage(atk, def, roll)

		effDef := def
		if effDef < 1 {
			effDef = 1
		}
		ratio := atk / effDef
		lo := int(math.Floor(ratio * 300 * 0.9))
		hi := int(math.Floor(ratio * 300 * 1.1))
		if got < lo || got > hi {
			t.Fatalf("Damage(%v,%v,%v) = %d outside [%d,%d]", atk, def, roll, got, lo, hi)
		}
		if got < 0 {
			t.Fatalf("Damage negative: %d", got)
		}
	}
}

func TestDamageFloorsDefenseAtOne(t *testing.T) {
	// Zero defense must not divide by zero; it behaves as defense 1.
	if got, want := Damage(100, 0, 1.0), Damage(100, 1, 1.0); got != want {
		t.Errorf("Damage with def=0 = %d, want %d", got, want)
	}
}

func TestHighLeadReduction(t *testing.T) {
	tests := []struct {
		damage, lead, want int
		reduced            bool
	}{
		{1000, 90, 800, true},
		{1000, 95, 800, true},
		{999, 90, 799, true}, // floor(999*0.8)
		{1000, 89, 1000, false},
		{1000, 0, 1000, false},
	}
	for _, tt := range tests {
		got, reduced := HighLeadReduction(tt.damage, tt.lead)
		if got != tt.want || reduced != tt.reduced {
			t.Errorf("HighLeadReduction(%d, %d) = (%d, %v), want (%d, %v)",
				tt.damage, tt.lead, got, reduced, tt.want, tt.reduced)
		}
		if got > tt.damage {
			t.Errorf("reduction increased damage: %d > %d", got, tt.damage)
		}
	}
}

func TestResolveDuelTriggerRate(t *testing.T) {
	// Over 10,000 trials with war diff <= 10 the duel rate should sit
	// near 5%.
	rng := rand.New(rand.NewSource(42))
	triggered := 0
	const trials = 10000
	for i := 0; i < trials; i++ {
		out := ResolveDuel(80, 75, "a", "d", rng.Float64(), rng.Float64(), rng.Float64())
		if out.Triggered {
			triggered++
		}
	}
	rate := float64(triggered) / trials
	if rate < 0.03 || rate > 0.07 {
		t.Errorf("duel trigger rate = %.4f, want within [0.03, 0.07]", rate)
	}
}

func TestResolveDuelInstantKillRate(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	kills := 0
	const trials = 10000
	for i := 0; i < trials; i++ {
		out := ResolveDuel(95, 40, "a", "d", rng.Float64(), rng.Float64(), rng.Float64())
		if out.InstantKill {
			kills++
		}
	}
	rate := float64(kills) / trials
	if rate < 0.005 || rate > 0.015 {
		t.Errorf("instant kill rate = %.4f, want within [0.005, 0.015]", rate)
	}
}

func TestResolveDuelInstantKillVictimIsLowerWar(t *testing.T) {
	// No randomness in victim selection: the lower war stat always dies.
	out := ResolveDuel(95, 40, "strong", "weak", 0.0, 0.99, 0.99)
	if !out.Triggered || !out.InstantKill {
		t.Fatalf("expected instant kill, got %+v", out)
	}
	if out.Winner != "strong" || out.Loser != "weak" {
		t.Errorf("winner/loser = %s/%s, want strong/weak", out.Winner, out.Loser)
	}

	// Defender can instant-kill the attacker just as well.
	out = ResolveDuel(40, 95, "weak", "strong", 0.0, 0.99, 0.99)
	if out.Winner != "strong" || out.Loser != "weak" {
		t.Errorf("reversed: winner/loser = %s/%s, want strong/weak", out.Winner, out.Loser)
	}
}

func TestResolveDuelWinner(t *testing.T) {
	// Higher war wins outright.
	out := ResolveDuel(80, 75, "a", "d", 0.99, 0.0, 0.99)
	if !out.Triggered || out.InstantKill {
		t.Fatalf("expected plain duel, got %+v", out)
	}
	if out.Winner != "a" {
		t.Errorf("Winner = %s, want a", out.Winner)
	}

	// Exact tie: tieRoll < 0.5 picks the attacker, otherwise defender.
	out = ResolveDuel(80, 80, "a", "d", 0.99, 0.0, 0.49)
	if out.Winner != "a" {
		t.Errorf("tie with low roll: Winner = %s, want a", out.Winner)
	}
	out = ResolveDuel(80, 80, "a", "d", 0.99, 0.0, 0.5)
	if out.Winner != "d" {
		t.Errorf("tie with high roll: Winner = %s, want d", out.Winner)
	}
}

func TestResolveDuelNeitherZone(t *testing.T) {
	// War diff in (10, 20]: no duel, no kill, regardless of rolls.
	out := ResolveDuel(80, 65, "a", "d", 0.0, 0.0, 0.0)
	if out.Triggered {
		t.Errorf("war diff 15 should never trigger, got %+v", out)
	}
}
