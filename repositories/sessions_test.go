package repositories

import (
	"log/slog"
	"testing"
	"time"

	"config-lab/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	return db
}

func sampleSession(key string) domain.Session {
	return domain.Session{
		Key:     key,
		Feature: domain.FeatureWarn,
		Provenance: domain.Provenance{
			GroupID:   1001,
			GroupName: "test-group",
			AdminID:   42,
		},
		Draft: domain.Draft{
			"default": domain.BoolValue(true),
			"limit":   domain.IntValue(3),
			"report":  domain.PairValue(map[string]bool{"auto": false, "manual": true}),
		},
		Default: domain.Draft{
			"default": domain.BoolValue(true),
			"limit":   domain.IntValue(3),
			"report":  domain.PairValue(map[string]bool{"auto": false, "manual": true}),
		},
		Status:    domain.StatusOpen,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestSessionRepository_SaveLoadRoundtrip(t *testing.T) {
	req := require.New(t)
	repo := NewSessionRepository(openTestDB(t), slog.Default())

	saved := sampleSession("k1")
	req.NoError(repo.SaveSession(saved))

	sessions, err := repo.LoadSessions()
	req.NoError(err)
	req.Len(sessions, 1)
	req.Equal(saved.Key, sessions[0].Key)
	req.Equal(saved.Feature, sessions[0].Feature)
	req.Equal(saved.Provenance, sessions[0].Provenance)
	req.Equal(saved.Status, sessions[0].Status)
	req.True(sessions[0].Draft.Equal(saved.Draft))
	req.True(sessions[0].Default.Equal(saved.Default))
}

func TestSessionRepository_SaveOverwritesSameKey(t *testing.T) {
	req := require.New(t)
	repo := NewSessionRepository(openTestDB(t), slog.Default())

	session := sampleSession("k1")
	req.NoError(repo.SaveSession(session))

	session.Status = domain.StatusCommitted
	req.NoError(repo.SaveSession(session))

	sessions, err := repo.LoadSessions()
	req.NoError(err)
	req.Len(sessions, 1)
	req.Equal(domain.StatusCommitted, sessions[0].Status)
}

func TestSessionRepository_DeleteIsIdempotent(t *testing.T) {
	req := require.New(t)
	repo := NewSessionRepository(openTestDB(t), slog.Default())

	req.NoError(repo.SaveSession(sampleSession("k1")))
	req.NoError(repo.DeleteSession("k1"))
	req.NoError(repo.DeleteSession("k1"))

	sessions, err := repo.LoadSessions()
	req.NoError(err)
	req.Empty(sessions)
}

func TestSessionRepository_ScanSkipsForeignPrefixes(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repo := NewSessionRepository(db, slog.Default())

	req.NoError(repo.SaveSession(sampleSession("k1")))
	// An outbox record in the same database must not surface as a session.
	err := db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("out:WARN:0000000000000000001:x"), []byte("{}"))
	})
	req.NoError(err)

	sessions, err := repo.LoadSessions()
	req.NoError(err)
	req.Len(sessions, 1)
	req.Equal("k1", sessions[0].Key)
}
