package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	badger "github.com/dgraph-io/badger/v4"

	"cropchain/internal/batch/models"
	"cropchain/pkg/platform/sentinel"
)

const sequenceBandwidth = 100

// BadgerStore embeds the batch collection in a local badger database. An
// empty path opens an in-memory database.
type BadgerStore struct {
	db     *badger.DB
	seqMu  sync.Mutex
	seq    *badger.Sequence
	logger *slog.Logger
}

func OpenBadger(path string, logger *slog.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := badger.DefaultOptions(path).
		WithLogger(badgerLogger{logger: logger}).
		WithLoggingLevel(badger.WARNING)
	if path == "" {
		opts = opts.WithInMemory(true)
	} else if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create badger dir: %w", err)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open batch sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq, logger: logger}, nil
}

// Close releases unused leased sequence numbers and closes the database.
func (s *BadgerStore) Close() error {
	return errors.Join(s.seq.Release(), s.db.Close())
}

// NextSequence starts at 1. Numbers leased but unused before a crash are
// skipped, never reused.
func (s *BadgerStore) NextSequence(_ context.Context) (int64, error) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	n, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next batch sequence: %w", err)
	}
	return int64(n) + 1, nil
}

func (s *BadgerStore) Create(_ context.Context, b *models.Batch) error {
	data, err := encode(b)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(batchKey(b.BatchID))
		if _, err := txn.Get(key); err == nil {
			return sentinel.ErrAlreadyUsed
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
}

func (s *BadgerStore) FindByID(_ context.Context, batchID string) (*models.Batch, error) {
	var b *models.Batch
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		b, err = get(txn, batchID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Execute retries when badger reports a conflicting concurrent commit.
func (s *BadgerStore) Execute(_ context.Context, batchID string, mutate func(*models.Batch) error) (*models.Batch, error) {
	for range maxRetries {
		var result *models.Batch
		err := s.db.Update(func(txn *badger.Txn) error {
			b, err := get(txn, batchID)
			if err != nil {
				return err
			}
			if err := mutate(b); err != nil {
				return err
			}
			data, err := encode(b)
			if err != nil {
				return err
			}
			result = b
			return txn.Set([]byte(batchKey(batchID)), data)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("update batch %s: %w", batchID, sentinel.ErrConflict)
}

func (s *BadgerStore) List(_ context.Context) ([]*models.Batch, error) {
	var out []*models.Batch
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(keyPrefix + "CROP-")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			b, err := decode(data)
			if err != nil {
				return err
			}
			out = append(out, b)
		}
		return nil
	})
	return out, err
}

func get(txn *badger.Txn, batchID string) (*models.Batch, error) {
	item, err := txn.Get([]byte(batchKey(batchID)))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get batch %s: %w", batchID, err)
	}
	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

// badgerLogger routes badger's printf logging into slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...), "component", "badger")
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
