package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"config-lab/broadcast"
	"config-lab/domain"
	"config-lab/errors"
	"config-lab/registry"

	"github.com/samber/lo"
)

// Engine drives a session through its lifecycle:
//
//	Open --edit--> Open
//	Open --commit--> Committed
//	Open --reset-to-default--> Locked (commits the default draft atomically)
//
// Committed and Locked are terminal for edits. Every operation validates
// against the field registry and runs inside the store's per-key
// critical section, so a failed operation never leaves a partial draft.
type Engine struct {
	store    *Store
	registry *registry.Registry
	gateway  *broadcast.Gateway
	log      *slog.Logger
}

func NewEngine(store *Store, reg *registry.Registry, gateway *broadcast.Gateway, log *slog.Logger) *Engine {
	return &Engine{store: store, registry: reg, gateway: gateway, log: log}
}

// ToggleBoolean flips a boolean field, or one subfield of a nested
// boolean group when subfield is non-empty.
func (e *Engine) ToggleBoolean(key, field, subfield string) (domain.Session, error) {
	return e.store.Mutate(key, func(session *domain.Session) error {
		spec, err := e.editableField(session, field)
		if err != nil {
			return err
		}

		switch spec.Kind {
		case domain.KindBool:
			if subfield != "" {
				return fmt.Errorf("%w: %s has no subfield %s", errors.ErrInvalidField, field, subfield)
			}
			value := session.Draft[field]
			value.Bool = !value.Bool
			session.Draft[field] = value
			return nil
		case domain.KindNestedBool:
			if _, ok := spec.Subfield(subfield); !ok {
				return fmt.Errorf("%w: %s.%s", errors.ErrInvalidField, field, subfield)
			}
			session.Draft[field].Pair[subfield] = !session.Draft[field].Pair[subfield]
			return nil
		default:
			return fmt.Errorf("%w: %s is not a toggle", errors.ErrInvalidField, field)
		}
	})
}

// SetBoundedInt moves a bounded integer to the requested value. Requests
// come from the stepper controls and are always current plus or minus
// one step; anything outside [min, max] silently clamps to the boundary
// (the control goes inert there, it never errors), and an unaligned
// value snaps to the nearest step boundary.
func (e *Engine) SetBoundedInt(key, field string, requested int) (domain.Session, error) {
	return e.store.Mutate(key, func(session *domain.Session) error {
		spec, err := e.editableField(session, field)
		if err != nil {
			return err
		}
		if spec.Kind != domain.KindBoundedInt {
			return fmt.Errorf("%w: %s is not a bounded integer", errors.ErrInvalidField, field)
		}

		value := session.Draft[field]
		value.Int = alignToStep(lo.Clamp(requested, spec.Min, spec.Max), spec)
		session.Draft[field] = value
		return nil
	})
}

// Commit finalizes the draft: Open becomes Committed and the returned
// session carries the draft to deliver. Not idempotent: a second commit
// fails with ErrInvalidState. The caller performs the delivery.
func (e *Engine) Commit(key string) (domain.Session, error) {
	return e.store.Mutate(key, func(session *domain.Session) error {
		if session.Status != domain.StatusOpen {
			return fmt.Errorf("%w: session is %s", errors.ErrInvalidState, session.Status)
		}
		session.Status = domain.StatusCommitted
		return nil
	})
}

// ResetToDefault restores the all-defaults draft, locks the session, and
// delivers the defaulted configuration exactly as a commit would - all
// inside one critical section. The publish is scheduled before the lock
// becomes observable to any other operation on the key, so no caller can
// see a Locked session whose broadcast was not yet on its way.
func (e *Engine) ResetToDefault(ctx context.Context, key string) (domain.Session, error) {
	return e.store.Mutate(key, func(session *domain.Session) error {
		if session.Status != domain.StatusOpen {
			return fmt.Errorf("%w: session is %s", errors.ErrInvalidState, session.Status)
		}

		session.Draft = session.Default.Clone()
		session.Status = domain.StatusLocked
		session.LockedAt = time.Now().UTC()

		feature := session.Feature
		prov := session.Provenance
		final := session.Draft.Clone()
		go func() {
			if err := e.gateway.Publish(ctx, feature, prov, final); err != nil {
				e.log.Warn("Default-reset broadcast failed, session stays locked",
					"key", key, "feature", feature, "err", err)
			}
		}()
		return nil
	})
}

// editableField rejects closed sessions and undeclared fields before any
// mutation happens.
func (e *Engine) editableField(session *domain.Session, field string) (domain.FieldSpec, error) {
	if !session.Editable() {
		return domain.FieldSpec{}, fmt.Errorf("%w: session is %s", errors.ErrSessionClosed, session.Status)
	}
	specs, err := e.registry.Describe(session.Feature)
	if err != nil {
		return domain.FieldSpec{}, err
	}
	spec, ok := registry.Find(specs, field)
	if !ok {
		return domain.FieldSpec{}, fmt.Errorf("%w: %s", errors.ErrInvalidField, field)
	}
	return spec, nil
}

// alignToStep snaps a value inside [min, max] to the nearest boundary
// reachable by step from min. Values can only drift off-grid through
// legacy snapshots; live steppers always move one step at a time.
func alignToStep(value int, spec domain.FieldSpec) int {
	if spec.Step <= 0 {
		return value
	}
	offset := value - spec.Min
	steps := (offset + spec.Step/2) / spec.Step
	aligned := spec.Min + steps*spec.Step
	if aligned > spec.Max {
		aligned -= spec.Step
	}
	return aligned
}
