// Command wordsmith prints every phrase that sounds exactly like the given
// phrase, one per line.
//
// Usage:
//
//	wordsmith [-config f] [-dict f] [-workers n] [-v] "ice cream"
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/homophone"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults and WS_* overrides apply without one)")
	dictPath := flag.String("dict", "", "path to a pronouncing dictionary, overrides the config")
	workers := flag.Int("workers", -1, "enumeration workers, 1 scans sequentially (default from config)")
	verbose := flag.Bool("v", false, "log search progress to stderr")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: wordsmith [flags] PHRASE")
		fmt.Fprintln(os.Stderr, "  Finds phrases homophonous to PHRASE.")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	phrase := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}
	if *dictPath != "" {
		cfg.Dictionary.Source = config.SourceFile
		cfg.Dictionary.Path = *dictPath
	}
	if *workers >= 0 {
		cfg.Search.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		fail(err)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger.Setup(level, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, phrase); err != nil {
		fail(err)
	}
}

func run(ctx context.Context, cfg *config.Config, phrase string) error {
	var db *postgres.Client
	if cfg.Dictionary.Source == config.SourcePostgres {
		var err error
		if db, err = postgres.New(ctx, cfg.Postgres); err != nil {
			return err
		}
		defer db.Close()
	}
	source, err := corpus.FromConfig(cfg.Dictionary, db)
	if err != nil {
		return err
	}
	table, err := source.Load(ctx)
	if err != nil {
		return err
	}
	searcher := homophone.NewSearcher(homophone.NewLexicon(table), homophone.ConfigFrom(cfg.Search))

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	fmt.Fprintf(out, "Finding phrases homophonous to %s...\n\n", phrase)
	out.Flush()

	words := tokenizer.Tokenize(strings.ToLower(phrase))
	perWord, err := searcher.Pronounce(words)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Looking over %d different pronunciations of sentence...\n", homophone.ExpandCount(perWord))
	out.Flush()

	result, err := searcher.Search(ctx, words)
	if err != nil {
		return err
	}
	if result.Truncated {
		fmt.Fprintf(os.Stderr, "warning: search stopped early (%s budget) after %d partitions; results are incomplete\n",
			result.TruncatedBy, result.PartitionsExplored)
	}

	fmt.Fprintln(out, "\nDone! See below:")
	for _, p := range result.Phrases {
		fmt.Fprintln(out, p)
	}
	return nil
}

func fail(err error) {
	var unknown *phonetic.UnknownWordError
	if errors.As(err, &unknown) {
		fmt.Fprintf(os.Stderr, "Error: %q is not in the pronouncing dictionary\n", unknown.Word)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
