// Package transport holds concrete implementations of the chat-facing
// transport contract. The real deployment plugs the chat platform's
// client in here; LogTransport is the stand-in wired by default so the
// daemon runs (and is debuggable) without platform credentials.
package transport

import (
	"context"
	"log/slog"

	"config-lab/domain"

	"github.com/google/uuid"
)

// LogTransport renders sessions into the structured log instead of a
// chat device. Message refs are minted locally and accepted back for
// updates and annotations, so the whole session flow can be exercised.
type LogTransport struct {
	log *slog.Logger
}

func NewLogTransport(log *slog.Logger) *LogTransport {
	return &LogTransport{log: log}
}

func (t *LogTransport) RenderSession(_ context.Context, key string, menu domain.MenuDescription) (string, error) {
	ref := uuid.NewString()
	t.log.Info("Session rendered",
		"key", key, "ref", ref, "feature", menu.Feature, "rows", len(menu.Rows))
	return ref, nil
}

func (t *LogTransport) UpdateSession(_ context.Context, ref string, menu domain.MenuDescription) error {
	t.log.Info("Session menu updated",
		"ref", ref, "feature", menu.Feature, "rows", len(menu.Rows))
	return nil
}

func (t *LogTransport) AnnotateStatus(_ context.Context, ref, label string) error {
	t.log.Info("Session annotated", "ref", ref, "status", label)
	return nil
}
