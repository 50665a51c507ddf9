// Package checkpoint persists hierarchical index snapshots in BadgerDB
// so a rebuilt process can restore its index without re-ingesting every
// policy document. Sparse indexes are rebuilt deterministically from the
// restored chunks, so only the hierarchy itself is stored.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"

	"github.com/poliscope/poliscope/pkg/hierarchy"
)

// ErrEmptySnapshot is returned when saving a snapshot with no hierarchy.
var ErrEmptySnapshot = errors.New("checkpoint: snapshot has no hierarchy")

// Snapshot is one persisted index state.
type Snapshot struct {
	ID         string               `json:"id"`
	CreatedAt  time.Time            `json:"created_at"`
	ChunkCount int                  `json:"chunk_count"`
	Hierarchy  *hierarchy.Hierarchy `json:"hierarchy"`
}

// Info is snapshot metadata without the payload, cheap to list.
type Info struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	ChunkCount int       `json:"chunk_count"`
}

// Store reads and writes snapshots in a BadgerDB database.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens (or creates) the snapshot database at path. An empty path
// opens an in-memory database, useful for tests and ephemeral runs.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("checkpoint: create directory: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open database: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists a snapshot and marks it as the latest. A missing ID is
// generated; CreatedAt and ChunkCount are always set here.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap == nil || snap.Hierarchy == nil {
		return ErrEmptySnapshot
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	snap.CreatedAt = time.Now().UTC()
	snap.ChunkCount = len(snap.Hierarchy.Chunks)

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("checkpoint: marshal snapshot: %w", err)
	}
	meta, err := json.Marshal(Info{ID: snap.ID, CreatedAt: snap.CreatedAt, ChunkCount: snap.ChunkCount})
	if err != nil {
		return fmt.Errorf("checkpoint: marshal snapshot metadata: %w", err)
	}

	err = s.db.Update(func(tx *badger.Txn) error {
		if err := tx.Set(makeSnapshotKey(snap.ID), payload); err != nil {
			return err
		}
		if err := tx.Set(makeMetaKey(snap.ID), meta); err != nil {
			return err
		}
		return tx.Set(latestKey(), []byte(snap.ID))
	})
	if err != nil {
		return fmt.Errorf("checkpoint: save snapshot: %w", err)
	}

	s.logger.Info("index snapshot saved", "snapshot_id", snap.ID, "chunks", snap.ChunkCount)
	return nil
}

// Load retrieves a snapshot by ID. Returns (nil, nil) when it does not
// exist.
func (s *Store) Load(ctx context.Context, id string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var snap *Snapshot
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSnapshotKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			snap = &Snapshot{}
			return json.Unmarshal(val, snap)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("checkpoint: load snapshot %s: %w", id, err)
	}
	return snap, nil
}

// LoadLatest retrieves the most recently saved snapshot, or (nil, nil)
// when the store is empty.
func (s *Store) LoadLatest(ctx context.Context) (*Snapshot, error) {
	var latestID string
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(latestKey())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			latestID = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("checkpoint: load latest pointer: %w", err)
	}
	if latestID == "" {
		return nil, nil
	}
	return s.Load(ctx, latestID)
}

// Delete removes a snapshot. Deleting the latest snapshot clears the
// latest pointer; deleting a missing snapshot is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *badger.Txn) error {
		if err := tx.Delete(makeSnapshotKey(id)); err != nil {
			return err
		}
		if err := tx.Delete(makeMetaKey(id)); err != nil {
			return err
		}
		item, err := tx.Get(latestKey())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		var latestID string
		if err := item.Value(func(val []byte) error {
			latestID = string(val)
			return nil
		}); err != nil {
			return err
		}
		if latestID == id {
			return tx.Delete(latestKey())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("checkpoint: delete snapshot %s: %w", id, err)
	}
	return nil
}

// List returns metadata for every stored snapshot.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var infos []Info
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(metaPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				var info Info
				if err := json.Unmarshal(val, &info); err != nil {
					return err
				}
				infos = append(infos, info)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("checkpoint: list snapshots: %w", err)
	}
	return infos, nil
}

// CleanOld deletes snapshots older than maxAge, returning how many were
// removed.
func (s *Store) CleanOld(ctx context.Context, maxAge time.Duration) (int, error) {
	infos, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().Add(-maxAge)
	removed := 0
	for _, info := range infos {
		if !info.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.Delete(ctx, info.ID); err != nil {
			s.logger.Warn("failed to delete stale snapshot", "snapshot_id", info.ID, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
