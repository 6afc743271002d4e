package domain

import "time"

// Status is the lifecycle state of a session. Transitions are monotonic:
// an Open session keeps accepting edits, Committed and Locked are terminal.
type Status int

const (
	StatusOpen Status = iota
	StatusCommitted
	StatusLocked
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusCommitted:
		return "committed"
	case StatusLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// Provenance records who opened a session and for which group.
// Set at creation, immutable afterwards.
type Provenance struct {
	GroupID   int64  `json:"group_id"`
	GroupName string `json:"group_name"`
	GroupLink string `json:"group_link,omitempty"`
	AdminID   int64  `json:"admin_id"`
}

// Session is one in-progress or closed configuration edit for one
// feature on one target group.
type Session struct {
	Key        string      `json:"key"`
	Feature    FeatureType `json:"feature"`
	Provenance Provenance  `json:"provenance"`

	// Draft is mutated only through validated engine operations.
	// Default is the all-defaults snapshot taken at creation and is
	// never mutated afterwards.
	Draft   Draft `json:"draft"`
	Default Draft `json:"default"`

	Status Status `json:"status"`

	// MessageRef is the opaque handle to the rendered menu instance,
	// owned by the transport collaborator.
	MessageRef string `json:"message_ref,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	// LockedAt is non-zero only after a reset-to-default froze the session.
	LockedAt time.Time `json:"locked_at,omitempty"`
}

// Clone returns a deep copy so callers can never mutate store-owned state.
func (s Session) Clone() Session {
	out := s
	out.Draft = s.Draft.Clone()
	out.Default = s.Default.Clone()
	return out
}

// Age reports how long the session has existed at the given instant.
func (s Session) Age(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}

// Editable reports whether the session still accepts draft mutations.
func (s Session) Editable() bool {
	return s.Status == StatusOpen
}
