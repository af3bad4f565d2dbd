package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/memorank/memorank/internal/bootstrap"
	"github.com/memorank/memorank/internal/config"
	"github.com/memorank/memorank/internal/domain"
	"github.com/memorank/memorank/internal/feature"
	"github.com/memorank/memorank/internal/model"
	"github.com/memorank/memorank/internal/session"
	"github.com/memorank/memorank/internal/storage"
	"github.com/memorank/memorank/internal/sync"
	"github.com/memorank/memorank/internal/web"
)

func main() {
	flags := pflag.NewFlagSet("memorank", pflag.ExitOnError)
	config.RegisterFlags(flags)
	configFile := flags.String("config", "", "path to a YAML config file")
	addSource := flags.String("add-source", "", "register a deck source (local path or git URL) and exit")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags, *configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DatabasePath)

	if *addSource != "" {
		registerSource(db, *addSource)
		return
	}

	if err := sync.RunSync(db, cfg.ReposDir); err != nil {
		slog.Error("deck sync failed", "error", err)
		os.Exit(1)
	}

	cards, err := db.LoadCards()
	if err != nil {
		slog.Error("failed to load cards", "error", err)
		os.Exit(1)
	}
	if len(cards) == 0 {
		cards = seedStarterDeck(db)
	}

	baseline := bootstrap.Examples(cfg.Bootstrap.Sessions, cfg.Bootstrap.Seed)
	trainCfg := model.TrainConfig{
		Epochs:       cfg.Training.Epochs,
		LearningRate: cfg.Training.LearningRate,
		L2:           cfg.Training.L2,
	}

	sess := session.New(session.Config{
		Cards:    cards,
		Model:    loadOrTrainModel(db, cards, baseline, trainCfg),
		Baseline: baseline,
		Store:    db,
		Train:    trainCfg,
	})

	server := web.NewServer(sess)
	slog.Info("starting server", "addr", cfg.ListenAddr, "cards", len(cards))
	if err := http.ListenAndServe(cfg.ListenAddr, server); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// registerSource records a new deck source. Paths on disk become local
// sources; everything else is treated as a git URL.
func registerSource(db *storage.DB, path string) {
	kind := "git"
	if _, err := os.Stat(path); err == nil {
		kind = "local"
	}
	if _, err := db.InsertSource(path, kind); err != nil {
		slog.Error("failed to add source", "path", path, "error", err)
		os.Exit(1)
	}
	slog.Info("source added", "path", path, "kind", kind)
}

func seedStarterDeck(db *storage.DB) []domain.Card {
	slog.Info("no cards found, seeding starter deck")
	for _, card := range bootstrap.StarterDeck() {
		if _, err := db.InsertCard(card, 0); err != nil {
			slog.Warn("failed to insert starter card", "question", card.Question, "error", err)
		}
	}
	cards, err := db.LoadCards()
	if err != nil {
		slog.Error("failed to reload cards", "error", err)
		os.Exit(1)
	}
	return cards
}

// loadOrTrainModel restores the persisted model when present and valid.
// Otherwise it trains from the synthetic baseline plus any real review
// history, falling back to a neutral model on degenerate data. A
// corrupt persisted blob is discarded, never fatal.
func loadOrTrainModel(db *storage.DB, cards []domain.Card, baseline []model.Example, trainCfg model.TrainConfig) model.Model {
	st, err := db.LoadModel()
	if err == nil {
		if m, ferr := model.FromState(st); ferr == nil {
			slog.Info("restored persisted model", "trained_on", st.TrainedOn)
			return m
		} else {
			slog.Warn("persisted model rejected, retraining", "error", ferr)
		}
	} else if !errors.Is(err, storage.ErrNoModel) {
		slog.Warn("could not load persisted model, retraining", "error", err)
	}

	extractor := feature.NewExtractor()
	examples := append(append([]model.Example{}, baseline...), model.ExamplesFromCards(cards, extractor)...)
	m, err := model.Train(examples, trainCfg)
	if err != nil {
		slog.Warn("training failed, using neutral model", "error", err)
		return model.Neutral{}
	}

	if serr := db.SaveModel(m.State()); serr != nil {
		slog.Warn("failed to persist model", "error", serr)
	}
	slog.Info("trained initial model", "examples", len(examples))
	return m
}
