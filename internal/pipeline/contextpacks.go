package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/agora/internal/model"
)

// ContextPackStore resolves context pack ids
type ContextPackStore interface {
	LoadContextPacks(ctx context.Context, ids []string) ([]model.ContextPack, error)
}

type contextPackFile struct {
	Packs []model.ContextPack `yaml:"packs"`
}

// FileContextPackStore serves packs from a YAML file read once at creation
type FileContextPackStore struct {
	packs map[string]model.ContextPack
}

// NewFileContextPackStore loads every pack listed under "packs:" in path
func NewFileContextPackStore(path string) (*FileContextPackStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read context packs: %w", err)
	}
	return ParseContextPacks(data)
}

// ParseContextPacks parses a context pack file. Ids must be unique.
func ParseContextPacks(data []byte) (*FileContextPackStore, error) {
	var file contextPackFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse context packs: %w", err)
	}

	store := &FileContextPackStore{packs: make(map[string]model.ContextPack, len(file.Packs))}
	for i, p := range file.Packs {
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return nil, fmt.Errorf("context pack %d has no id", i)
		}
		if _, dup := store.packs[p.ID]; dup {
			return nil, fmt.Errorf("duplicate context pack id %q", p.ID)
		}
		store.packs[p.ID] = p
	}
	return store, nil
}

// LoadContextPacks returns the packs in request order. An unknown id is
// an ErrInvalidInput.
func (s *FileContextPackStore) LoadContextPacks(ctx context.Context, ids []string) ([]model.ContextPack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]model.ContextPack, 0, len(ids))
	for _, id := range ids {
		p, ok := s.packs[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown context pack %q", ErrInvalidInput, id)
		}
		out = append(out, p)
	}
	return out, nil
}
