// Package history stores classification outcomes in a kv.Store.
//
// Records are msgpack-encoded under history:<task>:<id>, where id is a
// UUIDv7 so that key order is creation order.
package history

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/sentio/pkg/kv"
	"github.com/haivivi/sentio/pkg/task"
)

const prefix = "history"

// Record is one stored outcome.
type Record struct {
	ID         string    `msgpack:"id" json:"id" yaml:"id"`
	Task       string    `msgpack:"task" json:"task" yaml:"task"`
	Mode       task.Mode `msgpack:"mode" json:"mode" yaml:"mode"`
	Input      string    `msgpack:"input,omitempty" json:"input,omitempty" yaml:"input,omitempty"`
	Label      string    `msgpack:"label" json:"label" yaml:"label"`
	Index      int       `msgpack:"index" json:"index" yaml:"index"`
	Confidence float32   `msgpack:"confidence" json:"confidence" yaml:"confidence"`
	Logits     []float32 `msgpack:"logits,omitempty" json:"logits,omitempty" yaml:"logits,omitempty"`
	CreatedAt  time.Time `msgpack:"created_at" json:"created_at" yaml:"created_at"`
}

// Store is a history log over a kv.Store.
type Store struct {
	kv  kv.Store
	now func() time.Time
}

// New returns a history store. It does not own s.
func New(s kv.Store) *Store {
	return &Store{kv: s, now: time.Now}
}

func taskPrefix(name string) kv.Key {
	if name == "" {
		return kv.Key{prefix}
	}
	return kv.Key{prefix, name}
}

// Append stores r, filling ID and CreatedAt when empty, and returns the
// stored record.
func (s *Store) Append(ctx context.Context, r Record) (Record, error) {
	if r.Task == "" {
		return Record{}, fmt.Errorf("history: record has no task")
	}
	if strings.ContainsRune(r.Task, kv.Separator) {
		return Record{}, fmt.Errorf("history: invalid task name %q", r.Task)
	}
	if r.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return Record{}, fmt.Errorf("history: new id: %w", err)
		}
		r.ID = id.String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}

	data, err := msgpack.Marshal(&r)
	if err != nil {
		return Record{}, fmt.Errorf("history: encode: %w", err)
	}
	if err := s.kv.Set(ctx, kv.Key{prefix, r.Task, r.ID}, data); err != nil {
		return Record{}, fmt.Errorf("history: store: %w", err)
	}
	return r, nil
}

// List returns up to limit records of the named task, newest first. An
// empty name lists every task; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, name string, limit int) ([]Record, error) {
	var out []Record
	for e, err := range s.kv.List(ctx, taskPrefix(name)) {
		if err != nil {
			return nil, fmt.Errorf("history: list: %w", err)
		}
		var r Record
		if err := msgpack.Unmarshal(e.Value, &r); err != nil {
			continue
		}
		out = append(out, r)
	}

	slices.SortFunc(out, func(a, b Record) int { return strings.Compare(b.ID, a.ID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Clear deletes the records of the named task, or all records when name
// is empty. It returns the number deleted.
func (s *Store) Clear(ctx context.Context, name string) (int, error) {
	var keys []kv.Key
	for e, err := range s.kv.List(ctx, taskPrefix(name)) {
		if err != nil {
			return 0, fmt.Errorf("history: list: %w", err)
		}
		keys = append(keys, e.Key)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := s.kv.BatchDelete(ctx, keys); err != nil {
		return 0, fmt.Errorf("history: clear: %w", err)
	}
	return len(keys), nil
}
