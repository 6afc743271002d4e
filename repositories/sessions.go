package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"config-lab/contract"
	"config-lab/domain"

	"github.com/dgraph-io/badger/v4"
)

// sessionPrefix namespaces session records so they never collide with
// outbox entries under the same database.
const sessionPrefix = "cfg:"

type SessionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewSessionRepository(db *badger.DB, log *slog.Logger) contract.SessionRepository {
	return &SessionRepository{db: db, log: log}
}

// SaveSession persists one session under "cfg:{key}". Values are JSON:
// the draft shape on disk matches the exchange-channel shape, which
// keeps the inspector tooling trivial.
func (r *SessionRepository) SaveSession(session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sessionPrefix+session.Key), data)
	})
}

// LoadSessions returns every persisted session via a prefix scan.
func (r *SessionRepository) LoadSessions() ([]domain.Session, error) {
	var sessions []domain.Session
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(sessionPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(value []byte) error {
				var session domain.Session
				if err := json.Unmarshal(value, &session); err != nil {
					return fmt.Errorf("unmarshal %s: %w", item.Key(), err)
				}
				sessions = append(sessions, session)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeleteSession removes a persisted session. Deleting an absent key is
// not an error: removal is idempotent end to end.
func (r *SessionRepository) DeleteSession(key string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(sessionPrefix + key))
	})
}
