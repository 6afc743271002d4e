package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"config-lab/contract"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// OutboxPublisher implements the publish collaborator on BadgerDB: each
// payload lands under "out:{receiver}:{timestamp_padded}:{uuid}", ready
// for an external shipper to drain in order. The 19-digit zero padding
// keeps keys lexicographically chronological; the UUID breaks ties when
// two messages arrive at the same nanosecond.
//
// This gives committed-but-unpublished configurations a durable trail:
// at-least-once redelivery only needs to replay the outbox.
type OutboxPublisher struct {
	db  *badger.DB
	log *slog.Logger
}

func NewOutboxPublisher(db *badger.DB, log *slog.Logger) contract.Publisher {
	return &OutboxPublisher{db: db, log: log}
}

func (p *OutboxPublisher) Publish(_ context.Context, receiver string, payload []byte) error {
	key := fmt.Sprintf("out:%s:%019d:%s",
		receiver,
		time.Now().UnixNano(),
		uuid.New(),
	)
	err := p.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), payload)
	})
	if err != nil {
		return fmt.Errorf("outbox append failed: %w", err)
	}
	p.log.Debug("Exchange message queued", "receiver", receiver, "bytes", len(payload))
	return nil
}
