package domain

// ActionKind tells the transport what a control click requests.
type ActionKind string

const (
	// ActionNone marks an inert control (labels, boundary steppers).
	ActionNone ActionKind = "none"
	// ActionToggle flips a boolean or nested-boolean field.
	ActionToggle ActionKind = "toggle"
	// ActionSet requests a bounded integer move to Control.Target.
	ActionSet ActionKind = "set"
	// ActionResetDefault restores the default draft and locks the session.
	ActionResetDefault ActionKind = "default"
	// ActionCommit finalizes the draft and delivers it.
	ActionCommit ActionKind = "commit"
	// ActionRemove drops the session. Never rendered as a control;
	// it arrives from the administrative surface.
	ActionRemove ActionKind = "remove"
)

// Control is one clickable (or inert) cell of the rendered menu.
type Control struct {
	Label    string     `json:"label"`
	Action   ActionKind `json:"action"`
	Field    string     `json:"field,omitempty"`
	Subfield string     `json:"subfield,omitempty"`
	// Target is the integer value an ActionSet click requests,
	// always current plus or minus one step.
	Target int `json:"target,omitempty"`
}

// MenuRow groups the controls displayed on one line.
type MenuRow struct {
	Controls []Control `json:"controls"`
}

// HeaderLine is one provenance line shown above the controls.
type HeaderLine struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MenuDescription is the renderable form of a session: provenance header
// plus labeled controls reflecting the current draft. It carries no
// presentation strings beyond field names and state markers; layout and
// localization belong to the transport.
type MenuDescription struct {
	Feature FeatureType  `json:"feature"`
	Header  []HeaderLine `json:"header,omitempty"`
	Rows    []MenuRow    `json:"rows"`
}
