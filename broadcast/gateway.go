// Package broadcast packages committed configurations into exchange
// messages for the moderation subsystems. Delivery is best-effort: the
// local Committed/Locked transition is the authoritative truth, and a
// failed publish leaves a committed-but-undelivered session behind.
// Redelivery of those is an operator concern, outside this package.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"config-lab/contract"
	"config-lab/domain"
	"config-lab/errors"
)

const (
	actionConfig     = "config"
	actionTypeCommit = "commit"
)

// Message is the exchange-channel envelope for a committed configuration.
type Message struct {
	Receivers  []string   `json:"receivers"`
	Action     string     `json:"action"`
	ActionType string     `json:"action_type"`
	Data       ConfigData `json:"data"`
}

// ConfigData carries the finalized draft for one group.
type ConfigData struct {
	GroupID int64        `json:"group_id"`
	Config  domain.Draft `json:"config"`
}

// AuditRecord traces who committed what, for the audit/debug channel.
type AuditRecord struct {
	Action     string             `json:"action"`
	Feature    domain.FeatureType `json:"feature"`
	Provenance domain.Provenance  `json:"provenance"`
	At         time.Time          `json:"at"`
}

type Gateway struct {
	publisher     contract.Publisher
	auditReceiver string
	log           *slog.Logger
}

func NewGateway(publisher contract.Publisher, auditReceiver string, log *slog.Logger) *Gateway {
	return &Gateway{publisher: publisher, auditReceiver: auditReceiver, log: log}
}

// Publish hands the finalized draft to the feature's owning subsystem
// and emits an audit record. A refused hand-off surfaces as
// ErrPublishUnavailable; the caller must not roll back the session
// state that led here. Audit failures are logged, never propagated.
func (g *Gateway) Publish(ctx context.Context, feature domain.FeatureType, prov domain.Provenance, final domain.Draft) error {
	msg := Message{
		Receivers:  []string{feature.Receiver()},
		Action:     actionConfig,
		ActionType: actionTypeCommit,
		Data: ConfigData{
			GroupID: prov.GroupID,
			Config:  final,
		},
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode exchange message: %w", err)
	}

	if err := g.publisher.Publish(ctx, feature.Receiver(), payload); err != nil {
		g.log.Warn("Exchange publish refused",
			"feature", feature, "group_id", prov.GroupID, "err", err)
		return fmt.Errorf("%w: %v", errors.ErrPublishUnavailable, err)
	}

	g.audit(ctx, feature, prov)
	return nil
}

func (g *Gateway) audit(ctx context.Context, feature domain.FeatureType, prov domain.Provenance) {
	record := AuditRecord{
		Action:     actionTypeCommit,
		Feature:    feature,
		Provenance: prov,
		At:         time.Now().UTC(),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		g.log.Warn("Failed to encode audit record", "feature", feature, "err", err)
		return
	}
	if err := g.publisher.Publish(ctx, g.auditReceiver, payload); err != nil {
		g.log.Warn("Audit publish refused", "feature", feature, "err", err)
	}
}
