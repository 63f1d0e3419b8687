// Random skirmish map generation. Terrain fertility comes from simplex
// noise; city placement, adjacency, and rosters are derived from it
// deterministically for a given seed.
package scenario

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/LongView-dev/sanguo-190/internal/domain"
)

// GenConfig controls skirmish generation.
type GenConfig struct {
	Seed     int64
	Cities   int
	Factions int
	GridSize int // map is GridSize x GridSize
}

// DefaultGenConfig is a three-way skirmish over eight cities.
func DefaultGenConfig() GenConfig {
	return GenConfig{Seed: 1, Cities: 8, Factions: 3, GridSize: 12}
}

var (
	citySyllables = []string{
		"An", "Bei", "Chang", "Dong", "Feng", "Guan", "Han", "Jin",
		"Lin", "Nan", "Ping", "Qing", "Shan", "Tai", "Xiang", "Yun",
	}
	citySuffixes = []string{"yang", "zhou", "ling", "cheng", "guan", "kou", "du", "po"}

	familyNames = []string{"Zhao", "Qian", "Sun", "Zhou", "Wu", "Zheng", "Wang", "Chen", "Wei", "Jiang", "Shen", "Han"}
	givenNames  = []string{"Jian", "Ming", "Hao", "Yan", "Rui", "Tao", "Liang", "Xin", "Kang", "Zhen", "Feng", "Bao"}
)

type candidate struct {
	pos       domain.Position
	fertility float64
}

// Generate produces a validated skirmish scenario. The same config always
// yields the same map.
func Generate(cfg GenConfig) (*File, error) {
	if cfg.Cities < cfg.Factions || cfg.Factions < 2 {
		return nil, fmt.Errorf("need at least %d cities for %d factions", cfg.Factions, cfg.Factions)
	}
	if cfg.GridSize < 4 {
		return nil, fmt.Errorf("grid size %d too small", cfg.GridSize)
	}

	noise := opensimplex.NewNormalized(cfg.Seed)
	rng := rand.New(rand.NewSource(cfg.Seed))

	sites := placeCities(noise, cfg)
	if len(sites) < cfg.Cities {
		return nil, fmt.Errorf("could not place %d cities on a %d-grid", cfg.Cities, cfg.GridSize)
	}

	f := &File{
		Name:  fmt.Sprintf("Skirmish %d", cfg.Seed),
		Start: domain.Date{Year: 190, Month: 1},
	}

	// Cities, named and provisioned from fertility.
	usedNames := map[string]bool{}
	for i, site := range sites {
		name := cityName(rng, usedNames)
		scale := scaleFor(i, len(sites))
		f.Cities = append(f.Cities, CitySpec{
			ID:        domain.CityID(strings.ToLower(name)),
			Name:      name,
			Position:  site.pos,
			Scale:     scale,
			Resources: cityResources(scale, site.fertility, rng),
		})
	}

	connectCities(f, sites)

	// Factions claim contiguous west-to-east slices of the map.
	order := make([]int, len(f.Cities))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if f.Cities[order[a]].Position.X != f.Cities[order[b]].Position.X {
			return f.Cities[order[a]].Position.X < f.Cities[order[b]].Position.X
		}
		return f.Cities[order[a]].Position.Y < f.Cities[order[b]].Position.Y
	})

	per := len(f.Cities) / cfg.Factions
	extra := len(f.Cities) % cfg.Factions
	families := rng.Perm(len(familyNames))
	idx := 0
	for fi := 0; fi < cfg.Factions; fi++ {
		family := familyNames[families[fi]]
		fid := domain.FactionID(strings.ToLower(family))
		count := per
		if fi < extra {
			count++
		}

		spec := FactionSpec{
			ID:        fid,
			Name:      fmt.Sprintf("House %s", family),
			Color:     factionColors[fi%len(factionColors)],
			Diplomacy: make(map[domain.FactionID]domain.DiplomacyStatus),
		}

		for c := 0; c < count; c++ {
			ci := order[idx]
			idx++
			f.Cities[ci].Faction = fid

			// One or two generals per city; the first governs.
			nGen := 1 + rng.Intn(2)
			for g := 0; g < nGen; g++ {
				gen := makeGeneral(rng, family, fid, f.Cities[ci].ID, len(f.Generals))
				f.Generals = append(f.Generals, gen)
				if g == 0 {
					f.Cities[ci].Governor = gen.ID
				}
				if spec.Leader == "" {
					spec.Leader = gen.ID
				}
			}
		}
		f.Factions = append(f.Factions, spec)
	}

	// Every house against every other.
	for i := range f.Factions {
		for j := range f.Factions {
			if i != j {
				f.Factions[i].Diplomacy[f.Factions[j].ID] = domain.DiplomacyHostile
			}
		}
	}
	f.Player = f.Factions[0].ID

	// Generation must always produce a valid scenario.
	if _, err := f.GameState(); err != nil {
		return nil, fmt.Errorf("generated scenario invalid: %w", err)
	}
	return f, nil
}

var factionColors = []string{"blue", "red", "green", "yellow", "purple", "cyan"}

// placeCities greedily picks the most fertile grid cells, keeping cities
// at least two cells apart.
func placeCities(noise opensimplex.Noise, cfg GenConfig) []candidate {
	var cells []candidate
	for x := 0; x < cfg.GridSize; x++ {
		for y := 0; y < cfg.GridSize; y++ {
			cells = append(cells, candidate{
				pos:       domain.Position{X: x, Y: y},
				fertility: noise.Eval2(float64(x)*0.3, float64(y)*0.3),
			})
		}
	}
	sort.SliceStable(cells, func(i, j int) bool { return cells[i].fertility > cells[j].fertility })

	var chosen []candidate
	for _, c := range cells {
		if len(chosen) == cfg.Cities {
			break
		}
		tooClose := false
		for _, p := range chosen {
			dx := c.pos.X - p.pos.X
			dy := c.pos.Y - p.pos.Y
			if dx*dx+dy*dy < 4 {
				tooClose = true
				break
			}
		}
		if !tooClose {
			chosen = append(chosen, c)
		}
	}
	return chosen
}

// connectCities links each city to its three nearest neighbors, then
// bridges any remaining components so the map is a single graph.
// Adjacency is kept symmetric throughout.
func connectCities(f *File, sites []candidate) {
	dist := func(a, b int) float64 {
		dx := float64(sites[a].pos.X - sites[b].pos.X)
		dy := float64(sites[a].pos.Y - sites[b].pos.Y)
		return math.Sqrt(dx*dx + dy*dy)
	}
	link := func(a, b int) {
		if !containsID(f.Cities[a].Connections, f.Cities[b].ID) {
			f.Cities[a].Connections = append(f.Cities[a].Connections, f.Cities[b].ID)
		}
		if !containsID(f.Cities[b].Connections, f.Cities[a].ID) {
			f.Cities[b].Connections = append(f.Cities[b].Connections, f.Cities[a].ID)
		}
	}

	n := len(sites)
	for i := 0; i < n; i++ {
		neighbors := make([]int, 0, n-1)
		for j := 0; j < n; j++ {
			if j != i {
				neighbors = append(neighbors, j)
			}
		}
		sort.SliceStable(neighbors, func(a, b int) bool { return dist(i, neighbors[a]) < dist(i, neighbors[b]) })
		for k := 0; k < 3 && k < len(neighbors); k++ {
			link(i, neighbors[k])
		}
	}

	// Union components until one remains.
	for {
		comp := components(f)
		if len(comp) <= 1 {
			return
		}
		// Bridge the closest pair between the first component and any
		// other.
		bestA, bestB, bestD := -1, -1, math.Inf(1)
		for _, a := range comp[0] {
			for _, others := range comp[1:] {
				for _, b := range others {
					if d := dist(a, b); d < bestD {
						bestA, bestB, bestD = a, b, d
					}
				}
			}
		}
		link(bestA, bestB)
	}
}

// components groups city indexes into connected components.
func components(f *File) [][]int {
	index := map[domain.CityID]int{}
	for i, c := range f.Cities {
		index[c.ID] = i
	}
	seen := make([]bool, len(f.Cities))
	var out [][]int
	for i := range f.Cities {
		if seen[i] {
			continue
		}
		var comp []int
		queue := []int{i}
		seen[i] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			comp = append(comp, cur)
			for _, nid := range f.Cities[cur].Connections {
				ni := index[nid]
				if !seen[ni] {
					seen[ni] = true
					queue = append(queue, ni)
				}
			}
		}
		out = append(out, comp)
	}
	return out
}

func scaleFor(rank, total int) domain.CityScale {
	switch {
	case rank < total/3:
		return domain.ScaleLarge
	case rank < 2*total/3:
		return domain.ScaleMedium
	default:
		return domain.ScaleSmall
	}
}

func cityResources(scale domain.CityScale, fertility float64, rng *rand.Rand) domain.CityResources {
	mult := 1.0
	switch scale {
	case domain.ScaleMedium:
		mult = 1.5
	case domain.ScaleLarge:
		mult = 2.0
	}
	return domain.CityResources{
		Population:  int(float64(80000+rng.Intn(40000)) * mult),
		Gold:        int(float64(800+rng.Intn(600)) * mult),
		Grain:       int(float64(3000+rng.Intn(2000)) * mult),
		Commerce:    clampDev(int(fertility*300*mult) + rng.Intn(100)),
		Agriculture: clampDev(int(fertility*400*mult) + rng.Intn(100)),
		Defense:     20 + rng.Intn(40),
		Loyalty:     50 + rng.Intn(30),
	}
}

func clampDev(v int) int {
	if v > domain.MaxDevelopment {
		return domain.MaxDevelopment
	}
	if v < 0 {
		return 0
	}
	return v
}

func cityName(rng *rand.Rand, used map[string]bool) string {
	for {
		name := citySyllables[rng.Intn(len(citySyllables))] + citySuffixes[rng.Intn(len(citySuffixes))]
		if !used[name] {
			used[name] = true
			return name
		}
	}
}

func makeGeneral(rng *rand.Rand, family string, fid domain.FactionID, city domain.CityID, serial int) GeneralSpec {
	given := givenNames[rng.Intn(len(givenNames))]
	name := family + " " + given
	stat := func(base int) int { return base + rng.Intn(101-base) }
	return GeneralSpec{
		ID:      domain.GeneralID(fmt.Sprintf("%s%s%d", strings.ToLower(family), strings.ToLower(given), serial)),
		Name:    name,
		Faction: fid,
		Attr: domain.Attributes{
			Lead: stat(40),
			War:  stat(30),
			Int:  stat(20),
			Pol:  stat(20),
			Cha:  stat(30),
		},
		Age:    20 + rng.Intn(30),
		City:   city,
		Troops: 3000 + rng.Intn(5000),
	}
}

func containsID(ids []domain.CityID, id domain.CityID) bool {
	for _, c := range ids {
		if c == id {
			return true
		}
	}
	return false
}
