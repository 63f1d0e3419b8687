// Command sanguo runs Three Kingdoms campaigns: autoplayed simulations,
// an HTTP server for interactive play, and skirmish map generation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/LongView-dev/sanguo-190/internal/api"
	"github.com/LongView-dev/sanguo-190/internal/domain"
	"github.com/LongView-dev/sanguo-190/internal/narrative"
	"github.com/LongView-dev/sanguo-190/internal/persistence"
	"github.com/LongView-dev/sanguo-190/internal/scenario"
	"github.com/LongView-dev/sanguo-190/internal/turn"
)

var (
	scenarioPath string
	dbPath       string
	seed         int64
	verbose      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sanguo",
		Short: "Three Kingdoms turn-based campaign simulator",
		Long: `A deterministic turn-based strategy kernel set in the Three
Kingdoms era: domestic development, recruitment, and campaigns between
warlord factions, resolved month by month.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelInfo
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
	}
	rootCmd.PersistentFlags().StringVarP(&scenarioPath, "scenario", "s", "scenarios/zhongyuan190.yaml", "Path to scenario YAML")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to campaign SQLite database (empty = no persistence)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 1, "Random seed")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(runCmd(), serveCmd(), genmapCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var months int
	var useLLM bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Autoplay a campaign with the AI driving every faction",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(scenarioPath)
			if err != nil {
				return err
			}

			orch := &turn.Orchestrator{
				Narrator:   pickNarrator(useLLM),
				RNG:        rand.New(rand.NewSource(seed)),
				AutoPlayer: true,
			}
			if dbPath != "" {
				db, err := persistence.Open(dbPath)
				if err != nil {
					return err
				}
				defer db.Close()
				orch.Store = db
			}

			title := color.New(color.FgCyan, color.Bold)
			title.Printf("%s — %d factions, %d cities\n\n", scenarioPath, len(s.Factions), len(s.Cities))
			printStandings(s)

			ctx := context.Background()
			for i := 0; i < months; i++ {
				s = orch.EndPlayerTurn(ctx, s)
				if winner, ok := turn.Winner(s); ok {
					color.New(color.FgGreen, color.Bold).Printf(
						"\n%s unified the realm in year %d, month %d.\n",
						s.Factions[winner].Name, s.Date.Year, s.Date.Month)
					break
				}
			}

			fmt.Printf("\nAfter year %d, month %d:\n", s.Date.Year, s.Date.Month)
			printStandings(s)
			printChronicle(s, 10)
			return nil
		},
	}
	cmd.Flags().IntVarP(&months, "months", "m", 60, "Months to simulate")
	cmd.Flags().BoolVar(&useLLM, "llm", false, "Narrate events with the LLM (needs ANTHROPIC_API_KEY)")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int
	var resume bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a campaign over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			var db *persistence.DB
			if dbPath != "" {
				var err error
				if db, err = persistence.Open(dbPath); err != nil {
					return err
				}
				defer db.Close()
			}

			var s *domain.GameState
			if resume && db != nil {
				loaded, err := db.Load()
				if err != nil {
					return fmt.Errorf("resume: %w", err)
				}
				s = loaded
				slog.Info("campaign resumed", "year", s.Date.Year, "month", s.Date.Month)
			} else {
				var err error
				if s, err = scenario.Load(scenarioPath); err != nil {
					return err
				}
			}

			orch := &turn.Orchestrator{
				Narrator: pickNarrator(true),
				RNG:      rand.New(rand.NewSource(seed)),
			}
			if db != nil {
				orch.Store = db
			}

			srv := api.NewServer(orch, s, port)
			srv.AdminKey = os.Getenv("SANGUO_ADMIN_KEY")
			if srv.AdminKey == "" {
				slog.Warn("SANGUO_ADMIN_KEY not set, turn-end endpoint is open")
			}
			srv.Start()

			fmt.Printf("Campaign API: http://localhost:%d/api/v1/status\n", port)
			fmt.Println("Ctrl+C to stop.")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			slog.Info("shutting down", "signal", sig)

			if db != nil {
				if err := db.SaveState(srv.State()); err != nil {
					slog.Error("final save failed", "error", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8190, "HTTP port")
	cmd.Flags().BoolVar(&resume, "resume", false, "Resume the campaign saved in --db")
	return cmd
}

func genmapCmd() *cobra.Command {
	cfg := scenario.DefaultGenConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "genmap",
		Short: "Generate a random skirmish scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Seed = seed
			f, err := scenario.Generate(cfg)
			if err != nil {
				return err
			}
			b, err := yaml.Marshal(f)
			if err != nil {
				return err
			}
			if out == "" {
				os.Stdout.Write(b)
				return nil
			}
			if err := os.WriteFile(out, b, 0644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s: %d cities, %d factions.\n", out, len(f.Cities), len(f.Factions))
			return nil
		},
	}
	cmd.Flags().IntVar(&cfg.Cities, "cities", cfg.Cities, "Number of cities")
	cmd.Flags().IntVar(&cfg.Factions, "factions", cfg.Factions, "Number of factions")
	cmd.Flags().IntVar(&cfg.GridSize, "grid", cfg.GridSize, "Map grid size")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

// pickNarrator uses the LLM when asked for and configured, templates
// otherwise.
func pickNarrator(wantLLM bool) narrative.Narrator {
	if wantLLM {
		if c := narrative.NewClient(os.Getenv("ANTHROPIC_API_KEY")); c != nil {
			slog.Info("LLM narration enabled")
			return c
		}
		slog.Warn("ANTHROPIC_API_KEY not set, using template narration")
	}
	return narrative.TemplateNarrator{}
}

// printStandings renders one row per faction, strongest holdings first
// by city count.
func printStandings(s *domain.GameState) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Faction", "Leader", "Cities", "Generals", "Troops", "Gold", "Population"}),
	)

	for _, id := range s.SortedFactionIDs() {
		f := s.Factions[id]
		if len(f.Cities) == 0 {
			continue
		}
		troops, gold, pop := 0, 0, 0
		for _, cid := range f.Cities {
			troops += domain.CityTroops(s, cid)
			gold += s.Cities[cid].Resources.Gold
			pop += s.Cities[cid].Resources.Population
		}
		leader := string(f.LeaderID)
		if g := s.Generals[f.LeaderID]; g != nil {
			leader = g.Name
		}
		_ = table.Append([]string{
			factionColor(f.Color).Sprint(f.Name),
			leader,
			fmt.Sprintf("%d", len(f.Cities)),
			fmt.Sprintf("%d", len(f.Generals)),
			humanize.Comma(int64(troops)),
			humanize.Comma(int64(gold)),
			humanize.Comma(int64(pop)),
		})
	}
	_ = table.Render()
}

// printChronicle shows the last n narrated events.
func printChronicle(s *domain.GameState, n int) {
	if len(s.Events) == 0 {
		return
	}
	color.New(color.FgYellow, color.Bold).Println("\nChronicle:")
	start := 0
	if len(s.Events) > n {
		start = len(s.Events) - n
	}
	for _, ev := range s.Events[start:] {
		text := ev.Narrative
		if text == "" {
			text = fmt.Sprintf("[%s]", ev.Type)
		}
		fmt.Printf("  %d/%02d  %s\n", ev.Date.Year, ev.Date.Month, text)
	}
}

func factionColor(name string) *color.Color {
	switch name {
	case "red":
		return color.New(color.FgRed)
	case "green":
		return color.New(color.FgGreen)
	case "yellow":
		return color.New(color.FgYellow)
	case "purple":
		return color.New(color.FgMagenta)
	case "cyan":
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgBlue)
	}
}
