// Package vocab loads WordPiece-style vocabulary files: one token per
// line, where the zero-based line index is the token id.
package vocab

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/haivivi/sentio/pkg/storage"
)

// Reserved ids used when the file does not name them.
const (
	DefaultPadID     int32 = 0
	DefaultUnknownID int32 = 100
	DefaultCLSID     int32 = 101
	DefaultSEPID     int32 = 102
)

// Marker tokens that override the pad and unknown ids.
const (
	PadToken     = "[PAD]"
	UnknownToken = "[UNK]"
)

// Vocabulary maps tokens to ids. It is read-only after loading and safe
// for concurrent use.
type Vocabulary struct {
	ids   map[string]int32
	lines int
	pad   int32
	unk   int32
	cls   int32
	sep   int32
}

// Load reads a vocabulary from r. Each line is trimmed of surrounding
// whitespace before use. When a token appears on several lines the last
// line wins, including for [PAD] and [UNK].
func Load(r io.Reader) (*Vocabulary, error) {
	v := &Vocabulary{
		ids: make(map[string]int32),
		pad: DefaultPadID,
		unk: DefaultUnknownID,
		cls: DefaultCLSID,
		sep: DefaultSEPID,
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		v.ids[strings.TrimSpace(sc.Text())] = int32(v.lines)
		v.lines++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("vocab: read line %d: %w", v.lines, err)
	}

	if id, ok := v.ids[PadToken]; ok {
		v.pad = id
	}
	if id, ok := v.ids[UnknownToken]; ok {
		v.unk = id
	}
	return v, nil
}

// LoadFile reads a vocabulary from a local file.
func LoadFile(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Open reads a vocabulary from an asset store.
func Open(ctx context.Context, fs storage.FileStore, path string) (*Vocabulary, error) {
	r, err := fs.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("vocab: open %s: %w", path, err)
	}
	defer r.Close()
	return Load(r)
}

// Lookup returns the id of token, or the unknown id.
func (v *Vocabulary) Lookup(token string) int32 {
	if id, ok := v.ids[token]; ok {
		return id
	}
	return v.unk
}

// Contains reports whether token has its own id.
func (v *Vocabulary) Contains(token string) bool {
	_, ok := v.ids[token]
	return ok
}

// Pad returns the padding id.
func (v *Vocabulary) Pad() int32 { return v.pad }

// Unknown returns the id used for out-of-vocabulary tokens.
func (v *Vocabulary) Unknown() int32 { return v.unk }

// CLS returns the sentence-start id.
func (v *Vocabulary) CLS() int32 { return v.cls }

// SEP returns the sentence-end id.
func (v *Vocabulary) SEP() int32 { return v.sep }

// Len returns the number of distinct tokens.
func (v *Vocabulary) Len() int { return len(v.ids) }

// Lines returns the number of lines read.
func (v *Vocabulary) Lines() int { return v.lines }
