// internal/store/local.go
package store

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"time"

	"cx-agent-builder/internal/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const localKeyPrefix = "agent:"

// LocalStore keeps generated configurations in an embedded Badger database
// so the CLI can list and show them without any server.
type LocalStore struct {
	db  *badger.DB
	now func() time.Time
}

type localRecord struct {
	SavedAt time.Time             `json:"saved_at"`
	Config  *models.CXAgentConfig `json:"config"`
}

// OpenLocalStore opens the store in dir. An empty dir keeps everything in
// memory.
func OpenLocalStore(dir string) (*LocalStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	return &LocalStore{db: db, now: time.Now}, nil
}

func (s *LocalStore) Close() error {
	return s.db.Close()
}

func (s *LocalStore) Put(cfg *models.CXAgentConfig) error {
	if cfg == nil || cfg.AgentID == "" {
		return fmt.Errorf("%w: configuration has no agent_id", ErrInsertFailed)
	}
	value, err := encodeRecord(localRecord{SavedAt: s.now().UTC(), Config: cfg})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(localKeyPrefix+cfg.AgentID), value)
	})
}

func (s *LocalStore) Get(agentID string) (*models.CXAgentConfig, error) {
	var rec localRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(localKeyPrefix + agentID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return decodeRecord(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return rec.Config, nil
}

// List returns summaries of every stored agent, newest first.
func (s *LocalStore) List() ([]AgentSummary, error) {
	var out []AgentSummary
	prefix := []byte(localKeyPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec localRecord
			if err := it.Item().Value(func(val []byte) error {
				return decodeRecord(val, &rec)
			}); err != nil {
				return err
			}
			if rec.Config == nil {
				continue
			}
			out = append(out, AgentSummary{
				AgentID:        rec.Config.AgentID,
				Name:           rec.Config.Persona.Name,
				Domain:         metadataString(rec.Config, "source_prompt"),
				GenerationMode: metadataString(rec.Config, "generation_mode"),
				Status:         string(rec.Config.Status),
				CreatedAt:      rec.SavedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Records use the JSON field names so stored agents read the same as the
// API output.
func encodeRecord(rec localRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRecord(data []byte, rec *localRecord) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(rec)
}
