// Command combat-sim plays batches of encounters headlessly and prints a
// JSON summary. Party members use the auto player, enemies the fallback
// decider, and every animation is acknowledged immediately.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ericogr/saga-combat/internal/combat"
	"github.com/ericogr/saga-combat/internal/config"
	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/decision"
	"github.com/ericogr/saga-combat/internal/dice"
	"github.com/ericogr/saga-combat/internal/game"
	"github.com/ericogr/saga-combat/internal/logging"
	"github.com/ericogr/saga-combat/internal/service"
	"github.com/ericogr/saga-combat/internal/storage"
)

type summary struct {
	Enemy      string  `json:"enemy"`
	Encounters int     `json:"encounters"`
	Victories  int     `json:"victories"`
	Defeats    int     `json:"defeats"`
	Aborted    int     `json:"aborted"`
	WinRate    float64 `json:"win_rate"`
	AvgRounds  float64 `json:"avg_rounds"`
}

func main() {
	defer logging.Sync()
	contentPath := flag.String("content", constants.DefaultContentPath, "content file")
	enemyID := flag.String("enemy", "", "enemy id (required)")
	runs := flag.Int("n", 100, "number of encounters")
	workers := flag.Int("workers", 4, "concurrent encounters")
	seed := flag.Uint64("seed", 0, "dice seed; 0 uses the runtime generator")
	dbPath := flag.String("db", "", "optional sqlite file to record encounter reports in")
	flag.Parse()

	if *enemyID == "" || *runs <= 0 || *workers <= 0 {
		flag.Usage()
		os.Exit(2)
	}
	content, err := config.LoadContent(*contentPath)
	if err != nil {
		logging.Fatal("Missing or invalid content file", err, logging.Fields{constants.LogFieldPath: *contentPath})
	}
	store := &simStore{characters: content.Characters}
	if *dbPath != "" {
		db, err := storage.OpenAndMigrate(*dbPath, content.Characters)
		if err != nil {
			logging.Fatal("Failed to initialize database", err, logging.Fields{constants.LogFieldPath: *dbPath})
		}
		store.reports = storage.NewSQLiteRepository(db, content.Characters)
	}
	svc := service.NewEncounterService(store, content)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := make([]*storage.EncounterReport, *runs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*workers)
	for i := 0; i < *runs; i++ {
		g.Go(func() error {
			var src dice.Source
			if *seed != 0 {
				src = rand.New(rand.NewPCG(*seed, uint64(i)))
			}
			rep, err := svc.Run(gctx, *enemyID, nil, combat.Config{
				Decider: decision.FallbackDecider{},
				Player:  combat.AutoPlayer{},
				Roller:  dice.NewRoller(src).WithTable(content.Table),
			})
			results[i] = rep
			return err
		})
	}
	if err := g.Wait(); err != nil {
		logging.Fatal("Simulation failed", err, logging.Fields{"enemy": *enemyID})
	}

	out := summarize(*enemyID, results)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logging.Fatal("Failed to write summary", err, nil)
	}
}

func summarize(enemyID string, results []*storage.EncounterReport) summary {
	s := summary{Enemy: enemyID}
	rounds := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		s.Encounters++
		rounds += r.Rounds
		switch r.Outcome {
		case game.OutcomeVictory:
			s.Victories++
		case game.OutcomeDefeat:
			s.Defeats++
		default:
			s.Aborted++
		}
	}
	if s.Encounters > 0 {
		s.WinRate = float64(s.Victories) / float64(s.Encounters)
		s.AvgRounds = float64(rounds) / float64(s.Encounters)
	}
	return s
}
