// Command dictload imports a pronouncing dictionary file into PostgreSQL,
// replacing the pronunciations table, and can also write the parsed
// dictionary out in gob form for faster startup.
//
// Usage:
//
//	dictload -dict data/cmudict.dict [-format auto] [-encoding utf-8] [-gob out.gob] [-skip-db]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	dictPath := flag.String("dict", "", "dictionary file to import (default from config)")
	format := flag.String("format", "", "auto, cmudict or gob (default from config)")
	encoding := flag.String("encoding", "", "text encoding of the dictionary (default from config)")
	gobPath := flag.String("gob", "", "also write the dictionary to this gob file")
	skipDB := flag.Bool("skip-db", false, "do not import into postgres")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	src := corpus.FileSource{
		Path:     pick(*dictPath, cfg.Dictionary.Path),
		Format:   corpus.Format(pick(*format, cfg.Dictionary.Format)),
		Encoding: pick(*encoding, cfg.Dictionary.Encoding),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	table, err := src.Load(ctx)
	if err != nil {
		slog.Error("failed to load dictionary", "path", src.Path, "error", err)
		os.Exit(1)
	}
	slog.Info("dictionary parsed",
		"path", src.Path,
		"words", table.Len(),
		"pronunciations", table.PronunciationCount(),
		"elapsed", time.Since(start),
	)

	if *gobPath != "" {
		if err := writeGob(*gobPath, table); err != nil {
			slog.Error("failed to write gob dictionary", "path", *gobPath, "error", err)
			os.Exit(1)
		}
		slog.Info("gob dictionary written", "path", *gobPath)
	}

	if *skipDB {
		return
	}
	db, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	start = time.Now()
	n, err := corpus.NewPostgresStore(db).Import(ctx, table)
	if err != nil {
		slog.Error("import failed", "error", err)
		os.Exit(1)
	}
	slog.Info("pronunciations imported", "rows", n, "elapsed", time.Since(start))
}

func pick(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func writeGob(path string, table *phonetic.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := corpus.WriteGob(f, table); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
