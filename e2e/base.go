package e2e

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"config-lab/broadcast"
	"config-lab/infrastructure/transport"
	"config-lab/registry"
	"config-lab/repositories"
	"config-lab/runtime/workers"
	"config-lab/services"
	"config-lab/sessions"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

// BaseSuite wires the whole stack in process over a throwaway BadgerDB:
// registry, store, engine, gateway, outbox and the log transport. Each
// test drives the administrative service exactly like the daemon does.
type BaseSuite struct {
	suite.Suite
	Config Config

	DB      *badger.DB
	Store   *sessions.Store
	Engine  *sessions.Engine
	Service *services.ConfigService
	Reaper  *workers.ReaperWorker
	Budget  time.Duration
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	s.Budget, err = time.ParseDuration(s.Config.SessionBudget)
	s.Require().NoError(err)
}

func (s *BaseSuite) SetupTest() {
	opts := badger.DefaultOptions(s.T().TempDir()).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	s.Require().NoError(err)
	s.DB = db

	log := slog.Default()
	reg := registry.New()
	repo := repositories.NewSessionRepository(db, log)
	s.Store = sessions.NewStore(reg, repo, log)

	publisher := repositories.NewOutboxPublisher(db, log)
	gateway := broadcast.NewGateway(publisher, "logs", log)
	s.Engine = sessions.NewEngine(s.Store, reg, gateway, log)

	chat := transport.NewLogTransport(log)
	s.Service = services.NewConfigService(log, s.Store, s.Engine, reg, chat, gateway)
	s.Reaper = workers.NewReaperWorker(log, s.Store, chat, time.Minute, s.Budget)
}

func (s *BaseSuite) TearDownTest() {
	s.Require().NoError(s.DB.Close())
}

// restartedStore rebuilds a store from the same database, simulating a
// daemon restart rehydrating its sessions from disk.
func (s *BaseSuite) restartedStore() (*sessions.Store, error) {
	log := slog.Default()
	store := sessions.NewStore(registry.New(), repositories.NewSessionRepository(s.DB, log), log)
	if err := store.LoadAll(); err != nil {
		return nil, err
	}
	return store, nil
}

// Step prints a colorized header for one scenario step in the logs
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// OutboxMessages drains every exchange message queued for one receiver,
// in publish order. Bodies are dumped as JSON if E2E_DEBUG_JSON is set.
func (s *BaseSuite) OutboxMessages(receiver string) []broadcast.Message {
	var messages []broadcast.Message
	err := s.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("out:" + receiver + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			if s.Config.DebugJSON {
				s.T().Logf("OUTBOX %s:\n%s", it.Item().Key(), value)
			}
			var msg broadcast.Message
			if err := json.Unmarshal(value, &msg); err != nil {
				return err
			}
			messages = append(messages, msg)
		}
		return nil
	})
	s.Require().NoError(err)
	return messages
}

// WaitForOutbox polls until at least n messages landed for the receiver.
// The reset broadcast is scheduled asynchronously, so scenarios that
// assert on it need to wait for the queue rather than the return value.
func (s *BaseSuite) WaitForOutbox(receiver string, n int) []broadcast.Message {
	deadline := time.Now().Add(5 * time.Second)
	for {
		messages := s.OutboxMessages(receiver)
		if len(messages) >= n {
			return messages
		}
		if time.Now().After(deadline) {
			s.Require().FailNowf("outbox timeout",
				"wanted %d message(s) for %s, got %d", n, receiver, len(messages))
		}
		time.Sleep(20 * time.Millisecond)
	}
}
