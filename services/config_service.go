package services

import (
	"context"
	"fmt"
	"log/slog"

	"config-lab/broadcast"
	"config-lab/contract"
	"config-lab/domain"
	"config-lab/errors"
	"config-lab/registry"
	"config-lab/render"
	"config-lab/sessions"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Status annotations requested from the transport on terminal events.
const (
	StatusCommitted = "committed"
	StatusRemoved   = "removed"
)

// OpenRequest asks for a new configuration session. Provenance is
// resolved upstream (the admin is already authenticated); this layer
// only checks shape.
type OpenRequest struct {
	Feature   string `validate:"required"`
	GroupID   int64  `validate:"required,gt=0"`
	GroupName string `validate:"required"`
	GroupLink string `validate:"omitempty,url"`
	AdminID   int64  `validate:"required,gt=0"`
}

// ActionRequest is one admin click on a rendered control, or an
// administrative remove command.
type ActionRequest struct {
	Key      string            `validate:"required"`
	Action   domain.ActionKind `validate:"required"`
	Field    string
	Subfield string
	// Target is the requested integer value for set actions.
	Target int
}

// ConfigService is the administrative surface: it maps session-open
// requests and click events onto engine operations and keeps the
// rendered menu in sync. A failed operation performs no transport call,
// so the menu the admin sees stays exactly as it was.
type ConfigService struct {
	log       *slog.Logger
	store     *sessions.Store
	engine    *sessions.Engine
	registry  *registry.Registry
	transport contract.Transport
	gateway   *broadcast.Gateway
}

func NewConfigService(
	log *slog.Logger,
	store *sessions.Store,
	engine *sessions.Engine,
	reg *registry.Registry,
	transport contract.Transport,
	gateway *broadcast.Gateway,
) *ConfigService {
	return &ConfigService{
		log:       log,
		store:     store,
		engine:    engine,
		registry:  reg,
		transport: transport,
		gateway:   gateway,
	}
}

// Open creates a session for one feature on one group, renders its menu
// and records the transport's message ref. The returned session is a
// detached copy.
func (s *ConfigService) Open(ctx context.Context, req OpenRequest) (domain.Session, error) {
	if err := validate.Struct(req); err != nil {
		return domain.Session{}, err
	}

	feature := domain.FeatureType(req.Feature)
	specs, err := s.registry.Describe(feature)
	if err != nil {
		return domain.Session{}, err
	}

	key := uuid.NewString()
	session, err := s.store.Create(key, feature, domain.Provenance{
		GroupID:   req.GroupID,
		GroupName: req.GroupName,
		GroupLink: req.GroupLink,
		AdminID:   req.AdminID,
	})
	if err != nil {
		return domain.Session{}, err
	}

	menu, err := render.Describe(session, specs)
	if err != nil {
		s.store.Remove(key)
		return domain.Session{}, err
	}
	ref, err := s.transport.RenderSession(ctx, key, menu)
	if err != nil {
		// Without a rendered menu the session cannot be driven; give
		// the key back rather than leaving an unreachable entry.
		s.store.Remove(key)
		return domain.Session{}, fmt.Errorf("render session: %w", err)
	}

	session, err = s.store.Mutate(key, func(session *domain.Session) error {
		session.MessageRef = ref
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}

	s.log.Info("Config session opened",
		"key", key, "feature", feature,
		"group_id", req.GroupID, "admin", req.AdminID)
	return session, nil
}

// HandleAction dispatches one click. Validation failures abort before
// any state or transport change; engine failures abort before any
// transport change.
func (s *ConfigService) HandleAction(ctx context.Context, req ActionRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}

	switch req.Action {
	case domain.ActionNone:
		return nil
	case domain.ActionToggle:
		session, err := s.engine.ToggleBoolean(req.Key, req.Field, req.Subfield)
		if err != nil {
			return err
		}
		s.refresh(ctx, session)
		return nil
	case domain.ActionSet:
		session, err := s.engine.SetBoundedInt(req.Key, req.Field, req.Target)
		if err != nil {
			return err
		}
		s.refresh(ctx, session)
		return nil
	case domain.ActionResetDefault:
		session, err := s.engine.ResetToDefault(ctx, req.Key)
		if err != nil {
			return err
		}
		// The session stays on display, frozen on the default draft.
		s.refresh(ctx, session)
		return nil
	case domain.ActionCommit:
		return s.commit(ctx, req.Key)
	case domain.ActionRemove:
		return s.remove(ctx, req.Key)
	default:
		return fmt.Errorf("%w: unknown action %q", errors.ErrInvalidState, req.Action)
	}
}

// commit finalizes the session and delivers the draft. The Committed
// transition is authoritative even when delivery is refused: the error
// is surfaced but nothing is rolled back.
func (s *ConfigService) commit(ctx context.Context, key string) error {
	session, err := s.engine.Commit(key)
	if err != nil {
		return err
	}

	pubErr := s.gateway.Publish(ctx, session.Feature, session.Provenance, session.Draft)

	if session.MessageRef != "" {
		if err := s.transport.AnnotateStatus(ctx, session.MessageRef, StatusCommitted); err != nil {
			s.log.Warn("Failed to annotate committed session", "key", key, "err", err)
		}
	}

	s.log.Info("Config session committed",
		"key", key, "feature", session.Feature,
		"group_id", session.Provenance.GroupID)
	return pubErr
}

// remove drops the session. An uncommitted menu is annotated as removed
// first so the admin is not left staring at live-looking controls.
func (s *ConfigService) remove(ctx context.Context, key string) error {
	session, ok := s.store.Get(key)
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrNotFound, key)
	}

	if session.Status == domain.StatusOpen && session.MessageRef != "" {
		if err := s.transport.AnnotateStatus(ctx, session.MessageRef, StatusRemoved); err != nil {
			s.log.Warn("Failed to annotate removed session", "key", key, "err", err)
		}
	}
	s.store.Remove(key)
	return nil
}

// refresh re-renders the menu after a successful mutation. A transport
// refusal only logs: the draft mutation already stands and the next
// interaction re-renders anyway.
func (s *ConfigService) refresh(ctx context.Context, session domain.Session) {
	specs, err := s.registry.Describe(session.Feature)
	if err != nil {
		s.log.Warn("Refresh skipped", "key", session.Key, "err", err)
		return
	}
	menu, err := render.Describe(session, specs)
	if err != nil {
		s.log.Warn("Refresh skipped", "key", session.Key, "err", err)
		return
	}
	if session.MessageRef == "" {
		return
	}
	if err := s.transport.UpdateSession(ctx, session.MessageRef, menu); err != nil {
		s.log.Warn("Failed to refresh session menu", "key", session.Key, "err", err)
	}
}
