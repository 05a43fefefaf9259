// Package corpus loads the pronouncing dictionary into a phonetic.Table.
// Dictionaries come from CMU-format text files, gob snapshots, or the
// pronunciations table in PostgreSQL.
package corpus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/postgres"
)

// Source produces a pronunciation table.
type Source interface {
	Load(ctx context.Context) (*phonetic.Table, error)
}

type Format string

const (
	FormatAuto    Format = "auto"
	FormatCMU     Format = "cmudict"
	FormatGob     Format = "gob"
	sniffLen             = 4096
)

// LoadError is the failure of any dictionary source. Line is set for text
// parse errors and zero otherwise.
type LoadError struct {
	Source string
	Line   int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("loading dictionary %s: line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("loading dictionary %s: %v", e.Source, e.Err)
}

// Unwrap exposes both the dictionary-load sentinel and the cause.
func (e *LoadError) Unwrap() []error {
	return []error{apperrors.ErrDictionaryLoad, e.Err}
}

// Sniff guesses the format from a filename and the first bytes of content.
// A .gob extension wins; otherwise binary content (invalid UTF-8 or NUL
// bytes) means gob.
func Sniff(name string, head []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gob":
		return FormatGob
	case ".dict", ".txt":
		return FormatCMU
	}
	if len(head) == 0 {
		return FormatCMU
	}
	if !utf8.Valid(trimPartialRune(head)) {
		return FormatGob
	}
	for _, b := range head {
		if b == 0 {
			return FormatGob
		}
	}
	return FormatCMU
}

// trimPartialRune drops a rune cut in half at the end of a sniff window.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size != 1 {
			break
		}
		b = b[:len(b)-1]
	}
	return b
}

// FileSource loads a dictionary file. Encoding applies to text
// dictionaries: "" or "utf-8" (a leading BOM is dropped), "latin-1" or
// "windows-1252".
type FileSource struct {
	Path     string
	Format   Format
	Encoding string
}

// textDecoder returns the transformer that turns enc into UTF-8.
func textDecoder(enc string) (transform.Transformer, error) {
	switch strings.ToLower(enc) {
	case "", "utf-8", "utf8":
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	}
	return nil, fmt.Errorf("unsupported text encoding %q", enc)
}

func isUTF8(enc string) bool {
	switch strings.ToLower(enc) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

func (s FileSource) Load(ctx context.Context) (*phonetic.Table, error) {
	logger := slog.Default().With("component", "corpus", "path", s.Path)

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, &LoadError{Source: s.Path, Err: err}
	}
	defer f.Close()

	dec, err := textDecoder(s.Encoding)
	if err != nil {
		return nil, &LoadError{Source: s.Path, Err: err}
	}

	br := bufio.NewReaderSize(f, 64<<10)
	format := s.Format
	if format == "" || format == FormatAuto {
		var head []byte
		if isUTF8(s.Encoding) {
			head, _ = br.Peek(sniffLen)
		}
		format = Sniff(s.Path, head)
	}

	var table *phonetic.Table
	switch format {
	case FormatGob:
		table, err = ParseGob(br)
	case FormatCMU:
		table, err = ParseCMU(transform.NewReader(ctxReader{ctx: ctx, r: br}, dec))
	default:
		return nil, &LoadError{Source: s.Path, Err: fmt.Errorf("unknown format %q", format)}
	}
	if err != nil {
		return nil, withSource(err, s.Path)
	}

	logger.Info("dictionary loaded",
		"format", string(format),
		"words", table.Len(),
		"pronunciations", table.PronunciationCount(),
	)
	return table, nil
}

func withSource(err error, source string) error {
	if le, ok := err.(*LoadError); ok {
		le.Source = source
		return le
	}
	return &LoadError{Source: source, Err: err}
}

// ctxReader aborts a long parse when ctx ends.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// FromConfig picks the source named by cfg. db is only needed for the
// postgres source.
func FromConfig(cfg config.DictionaryConfig, db *postgres.Client) (Source, error) {
	switch cfg.Source {
	case "", config.SourceFile:
		return FileSource{Path: cfg.Path, Format: Format(cfg.Format), Encoding: cfg.Encoding}, nil
	case config.SourcePostgres:
		if db == nil {
			return nil, &LoadError{Source: "postgres", Err: errors.New("no database connection")}
		}
		return PostgresSource{DB: db}, nil
	}
	return nil, &LoadError{Source: cfg.Source, Err: fmt.Errorf("unknown dictionary source %q", cfg.Source)}
}
