// Command seed loads events from a JSON file into the configured store.
//
//	go run ./cmd/seed -file seeds.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/config"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/logger"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/service"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/storage"
)

// seedEvent is one entry of the seed file.
type seedEvent struct {
	Name            string  `json:"name"`
	Participants    int     `json:"participants"`
	MaxParticipants int     `json:"maxParticipants"`
	Price           float64 `json:"price"`
}

func main() {
	file := flag.String("file", "seeds.json", "path to a JSON array of events")
	flag.Parse()

	if err := run(*file); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(file string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	seeds, err := readSeeds(file)
	if err != nil {
		return err
	}

	ctx := context.Background()
	stores, closeStores, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStores()

	inserted, err := insertSeeds(ctx, stores.Events, seeds, log)
	if err != nil {
		return err
	}
	log.Info("seeding finished", zap.Int("inserted", inserted), zap.Int("total", len(seeds)))
	return nil
}

func readSeeds(file string) ([]seedEvent, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	var seeds []seedEvent
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	return seeds, nil
}

// insertSeeds validates each entry like a create request, clamps the
// participant count into [0, maxParticipants] and stores it. Invalid
// entries are logged and skipped.
func insertSeeds(ctx context.Context, events service.EventStore, seeds []seedEvent, log *zap.Logger) (int, error) {
	inserted := 0
	for i, s := range seeds {
		req := model.CreateEventRequest{Name: s.Name, MaxParticipants: s.MaxParticipants, Price: s.Price}
		if err := req.Validate(); err != nil {
			log.Warn("skipping seed entry", zap.Int("index", i), zap.Error(err))
			continue
		}

		participants := min(max(s.Participants, 0), req.MaxParticipants)
		e, err := events.Create(ctx, model.Event{
			Name:            req.Name,
			MaxParticipants: req.MaxParticipants,
			Participants:    participants,
			Price:           req.Price,
		})
		if err != nil {
			return inserted, fmt.Errorf("insert %q: %w", req.Name, err)
		}
		log.Debug("seeded event", zap.Int64("event_id", e.ID), zap.String("name", e.Name))
		inserted++
	}
	return inserted, nil
}
