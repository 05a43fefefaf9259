package corpus

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/internal/phonetic"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/errors"
)

const classicDict = `;;; # CMUdict  --  Major Version: 0.07
;;; comment line
ICE  AY1 S
CREAM  K R IY1 M
EITHER  IY1 DH ER0
EITHER(2)  AY1 DH ER0
I  AY1
`

const modernDict = `ice AY1 S
cream K R IY1 M # plain
either IY1 DH ER0
either(2) AY1 DH ER0

i AY1
`

func keys(t *testing.T, table *phonetic.Table, word string) []string {
	t.Helper()
	prons, err := table.Lookup(word)
	require.NoError(t, err)
	out := make([]string, len(prons))
	for i, p := range prons {
		out[i] = p.Key()
	}
	return out
}

func TestParseCMUFormats(t *testing.T) {
	for name, text := range map[string]string{"classic": classicDict, "modern": modernDict} {
		t.Run(name, func(t *testing.T) {
			table, err := ParseCMU(strings.NewReader(text))
			require.NoError(t, err)
			assert.Equal(t, []string{"cream", "either", "i", "ice"}, table.Words())
			assert.Equal(t, 5, table.PronunciationCount())
			assert.Equal(t, []string{"IY1 DH ER0", "AY1 DH ER0"}, keys(t, table, "either"))
			assert.Equal(t, []string{"K R IY1 M"}, keys(t, table, "cream"))
		})
	}
}

func TestParseCMULowercasesPhonemes(t *testing.T) {
	table, err := ParseCMU(strings.NewReader("don't d ow1 n t\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"D OW1 N T"}, keys(t, table, "don't"))
}

func TestParseCMUErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		line int
	}{
		{"missing phonemes", "ICE AY1 S\nCREAM\n", 2},
		{"bad phoneme", "ICE AY1 S-\n", 1},
		{"empty", ";;; only comments\n\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCMU(strings.NewReader(tt.text))
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.line, le.Line)
			assert.ErrorIs(t, err, apperrors.ErrDictionaryLoad)
		})
	}
}

func TestStripVariant(t *testing.T) {
	assert.Equal(t, "word", stripVariant("word(2)"))
	assert.Equal(t, "word", stripVariant("word(12)"))
	assert.Equal(t, "(paren", stripVariant("(paren"))
	assert.Equal(t, "a(b)", stripVariant("a(b)"))
	assert.Equal(t, "()", stripVariant("()"))
}

func TestGobRoundTrip(t *testing.T) {
	table, err := ParseCMU(strings.NewReader(classicDict))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteGob(&buf, table))
	assert.Equal(t, FormatGob, Sniff("dict.bin", buf.Bytes()))

	back, err := ParseGob(&buf)
	require.NoError(t, err)
	assert.Equal(t, table.Words(), back.Words())
	assert.Equal(t, keys(t, table, "either"), keys(t, back, "either"))
}

func TestParseGobRejectsGarbage(t *testing.T) {
	_, err := ParseGob(strings.NewReader("not a gob"))
	assert.ErrorIs(t, err, apperrors.ErrDictionaryLoad)
}

func TestSniff(t *testing.T) {
	assert.Equal(t, FormatGob, Sniff("words.gob", []byte("ICE AY1 S")))
	assert.Equal(t, FormatCMU, Sniff("cmudict.dict", []byte{0, 1, 2}))
	assert.Equal(t, FormatCMU, Sniff("words", []byte("ICE AY1 S\n")))
	assert.Equal(t, FormatGob, Sniff("words", []byte{0x0e, 0xff, 0x81, 0x00}))
	assert.Equal(t, FormatCMU, Sniff("words", []byte("caf\xc3")))
	assert.Equal(t, FormatCMU, Sniff("words", nil))
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	textPath := filepath.Join(dir, "cmudict.dict")
	require.NoError(t, os.WriteFile(textPath, []byte(modernDict), 0o644))

	table, err := FileSource{Path: textPath}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())

	gobPath := filepath.Join(dir, "snapshot")
	f, err := os.Create(gobPath)
	require.NoError(t, err)
	require.NoError(t, WriteGob(f, table))
	require.NoError(t, f.Close())

	back, err := FileSource{Path: gobPath, Format: FormatAuto}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, table.Words(), back.Words())
}

func TestFileSourceErrors(t *testing.T) {
	_, err := FileSource{Path: filepath.Join(t.TempDir(), "missing.dict")}.Load(context.Background())
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	path := filepath.Join(t.TempDir(), "bad.dict")
	require.NoError(t, os.WriteFile(path, []byte("ICE AY1 S\nCREAM\n"), 0o644))
	_, err = FileSource{Path: path}.Load(context.Background())
	require.ErrorAs(t, err, &le)
	assert.Equal(t, path, le.Source)
	assert.Equal(t, 2, le.Line)
	assert.Contains(t, err.Error(), "line 2")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FileSource{Path: path, Format: FormatCMU}.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = FileSource{Path: path, Format: "xml"}.Load(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrDictionaryLoad)
}

func TestFileSourceEncodings(t *testing.T) {
	dir := t.TempDir()

	bomPath := filepath.Join(dir, "bom.dict")
	require.NoError(t, os.WriteFile(bomPath, append([]byte("\xef\xbb\xbf"), modernDict...), 0o644))
	table, err := FileSource{Path: bomPath}.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, table.Has("ice"))

	latinPath := filepath.Join(dir, "latin")
	require.NoError(t, os.WriteFile(latinPath, []byte("CAF\xc9  K AE0 F EY1\n"), 0o644))
	table, err = FileSource{Path: latinPath, Encoding: "latin-1"}.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, table.Has("café"))

	_, err = FileSource{Path: latinPath, Encoding: "ebcdic"}.Load(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrDictionaryLoad)
}

func TestFromConfig(t *testing.T) {
	src, err := FromConfig(config.DictionaryConfig{Source: config.SourceFile, Path: "d.dict", Format: "gob"}, nil)
	require.NoError(t, err)
	assert.Equal(t, FileSource{Path: "d.dict", Format: FormatGob}, src)

	_, err = FromConfig(config.DictionaryConfig{Source: config.SourcePostgres}, nil)
	assert.ErrorIs(t, err, apperrors.ErrDictionaryLoad)

	_, err = FromConfig(config.DictionaryConfig{Source: "s3"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrDictionaryLoad)
}
