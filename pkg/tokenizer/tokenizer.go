// Package tokenizer turns free text into fixed-length token id and
// attention mask sequences for BERT-style text classifiers.
//
// Text is lowercased and split into maximal runs of ASCII word characters
// or maximal runs of characters that are neither word characters nor
// whitespace. Each run is looked up whole; there is no subword splitting.
//
//	[CLS] t1 t2 ... tk [SEP] [PAD] ... [PAD]
//
// Content is truncated to L-2 tokens, so for L >= 2 the [SEP] marker always
// fits; long inputs end with [SEP] at position L-1.
package tokenizer

import (
	"regexp"
	"strings"
)

// Vocab is the lookup surface the tokenizer needs.
type Vocab interface {
	Lookup(token string) int32
	Pad() int32
	CLS() int32
	SEP() int32
}

// Sequence is a tokenized input of fixed length.
type Sequence struct {
	IDs  []int32
	Mask []int32
}

// Len returns the sequence length.
func (s Sequence) Len() int { return len(s.IDs) }

// Tokens returns the number of non-padding positions.
func (s Sequence) Tokens() int {
	n := 0
	for _, m := range s.Mask {
		n += int(m)
	}
	return n
}

// \v is whitespace for splitting purposes but not part of RE2's \s.
var tokenPattern = regexp.MustCompile(`\w+|[^\w\s\v]+`)

// Split lowercases text and returns its raw tokens.
func Split(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Tokenize encodes text into a sequence of exactly maxLen ids. It never
// fails; maxLen <= 0 yields an empty sequence.
func Tokenize(text string, v Vocab, maxLen int) Sequence {
	if maxLen <= 0 {
		return Sequence{IDs: []int32{}, Mask: []int32{}}
	}

	ids := make([]int32, maxLen)
	ids[0] = v.CLS()
	n := 1

	if limit := maxLen - 2; limit > 0 {
		for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), limit) {
			ids[n] = v.Lookup(tok)
			n++
		}
	}
	if n < maxLen {
		ids[n] = v.SEP()
		n++
	}

	pad := v.Pad()
	for ; n < maxLen; n++ {
		ids[n] = pad
	}

	mask := make([]int32, maxLen)
	for i, id := range ids {
		if id != pad {
			mask[i] = 1
		}
	}
	return Sequence{IDs: ids, Mask: mask}
}
