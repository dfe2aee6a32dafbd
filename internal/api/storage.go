package api

import (
	"context"
	"database/sql"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"dbdesign/internal/codegen"
	"dbdesign/internal/dsl"
	"dbdesign/internal/pg"
	"dbdesign/internal/store"
	"dbdesign/internal/typemap"
)

// Storage wires the engine to the migration and model directories.
type Storage struct {
	Migrations *store.Dir
	Models     *store.Models
	DBURL      string
	Log        *zap.Logger

	// VocabularyFile is reloaded by the admin endpoint when the request
	// names no file.
	VocabularyFile string

	mu    sync.RWMutex
	vocab *typemap.Vocabulary
	gen   *codegen.Generator

	openDB func(ctx context.Context, url string) (*sql.DB, error)
}

func NewStorage(migrationsDir, modelsDir, dbURL string, vocab *typemap.Vocabulary, log *zap.Logger) *Storage {
	if vocab == nil {
		vocab = typemap.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Storage{
		Migrations: store.NewDir(migrationsDir),
		Models:     &store.Models{Root: modelsDir, Log: log},
		vocab:      vocab,
		gen:        codegen.NewGenerator(vocab),
		DBURL:      dbURL,
		Log:        log,
		openDB:     pg.Open,
	}
}

// Vocabulary returns the type vocabulary currently in use.
func (s *Storage) Vocabulary() *typemap.Vocabulary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vocab
}

func (s *Storage) generator() *codegen.Generator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// SetVocabulary swaps the vocabulary used by later snapshots and renders.
func (s *Storage) SetVocabulary(vocab *typemap.Vocabulary) {
	s.mu.Lock()
	s.vocab = vocab
	s.gen = codegen.NewGenerator(vocab)
	s.mu.Unlock()
}

// Snapshot reads every migration and folds them into a fresh registry.
func (s *Storage) Snapshot() (*dsl.Registry, error) {
	return s.snapshotWith(s.Vocabulary())
}

func (s *Storage) snapshotWith(vocab *typemap.Vocabulary) (*dsl.Registry, error) {
	docs, err := s.Migrations.Documents()
	if err != nil {
		return nil, err
	}
	return dsl.Accumulate(docs, vocab, s.Log), nil
}

// Generate renders every request before touching the disk, writes the
// migrations as one staged batch, then syncs model files. It returns the
// written file names in request order.
func (s *Storage) Generate(reqs *dsl.OrderedMap[*codegen.ChangeRequest]) ([]string, error) {
	gen := s.generator()
	names := reqs.Keys()
	files := make(map[string]string, len(names))
	for _, name := range names {
		req, _ := reqs.Get(name)
		if req == nil {
			return nil, errors.Wrapf(codegen.ErrInvalidRequest, "%s: empty request", name)
		}
		body, err := gen.Render(req)
		if err != nil {
			return nil, errors.Wrap(err, name)
		}
		files[name] = body
	}
	if err := s.Migrations.WriteAll(files); err != nil {
		return nil, err
	}
	for _, name := range names {
		req, _ := reqs.Get(name)
		if err := s.Models.Sync(req); err != nil {
			return names, err
		}
		s.Log.Info("migration written", zap.String("file", name), zap.String("action", req.Action))
	}
	return names, nil
}
