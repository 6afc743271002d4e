// Package render maps a field registry and a draft onto a renderable
// menu description. It is pure: same specs and draft always produce the
// same controls, in declaration order, so an unchanged draft re-renders
// byte-identically.
package render

import (
	"fmt"
	"strconv"

	"config-lab/domain"
	"config-lab/errors"
)

// State and stepper markers. The transport may localize labels but the
// markers are part of the menu contract.
const (
	MarkOn    = "■"
	MarkOff   = "□"
	MarkDec   = "-"
	MarkInc   = "+"
	MarkInert = "*"

	LabelCommit = "commit"
)

// Menu builds the control rows for a draft. A draft missing a declared
// field is a broken invariant, reported as ErrInvalidField.
func Menu(specs []domain.FieldSpec, draft domain.Draft) ([]domain.MenuRow, error) {
	rows := make([]domain.MenuRow, 0, len(specs)+1)
	for _, spec := range specs {
		value, ok := draft[spec.Name]
		if !ok || value.Kind != spec.Kind {
			return nil, fmt.Errorf("%w: draft is missing %s", errors.ErrInvalidField, spec.Name)
		}

		switch spec.Kind {
		case domain.KindBool:
			rows = append(rows, boolRow(spec.Name, value.Bool))
		case domain.KindBoundedInt:
			rows = append(rows, intRow(spec, value.Int))
		case domain.KindNestedBool:
			for _, sub := range spec.Subfields {
				rows = append(rows, nestedRow(spec.Name, sub.Name, value.Pair[sub.Name]))
			}
		}
	}
	rows = append(rows, domain.MenuRow{Controls: []domain.Control{
		{Label: LabelCommit, Action: domain.ActionCommit},
	}})
	return rows, nil
}

// Describe builds the complete menu for a session: provenance header
// plus the control rows for its current draft.
func Describe(session domain.Session, specs []domain.FieldSpec) (domain.MenuDescription, error) {
	rows, err := Menu(specs, session.Draft)
	if err != nil {
		return domain.MenuDescription{}, err
	}
	return domain.MenuDescription{
		Feature: session.Feature,
		Header:  Header(session),
		Rows:    rows,
	}, nil
}

// Header lists the session provenance lines, mirroring the original
// session message prefix: key, group, admin.
func Header(session domain.Session) []domain.HeaderLine {
	lines := []domain.HeaderLine{
		{Name: "key", Value: session.Key},
		{Name: "group_name", Value: session.Provenance.GroupName},
		{Name: "group_id", Value: strconv.FormatInt(session.Provenance.GroupID, 10)},
		{Name: "admin", Value: strconv.FormatInt(session.Provenance.AdminID, 10)},
	}
	if session.Provenance.GroupLink != "" {
		lines = append(lines, domain.HeaderLine{Name: "group_link", Value: session.Provenance.GroupLink})
	}
	return lines
}

// boolRow renders a toggle: label cell plus state cell. The "default"
// field is special: its control requests a reset-to-default when the
// session has drifted off the defaults, and is inert while still on
// them (flipping an already-default config is meaningless).
func boolRow(field string, on bool) domain.MenuRow {
	state := domain.Control{Label: mark(on), Action: domain.ActionToggle, Field: field}
	if field == "default" {
		if on {
			state.Action = domain.ActionNone
			state.Field = ""
		} else {
			state.Action = domain.ActionResetDefault
		}
	}
	return domain.MenuRow{Controls: []domain.Control{
		{Label: field, Action: domain.ActionNone},
		state,
	}}
}

func nestedRow(field, subfield string, on bool) domain.MenuRow {
	return domain.MenuRow{Controls: []domain.Control{
		{Label: field + "_" + subfield, Action: domain.ActionNone},
		{Label: mark(on), Action: domain.ActionToggle, Field: field, Subfield: subfield},
	}}
}

// intRow renders a bounded integer: label, current value, and the two
// steppers. A stepper at its boundary goes inert instead of erroring.
func intRow(spec domain.FieldSpec, current int) domain.MenuRow {
	dec := domain.Control{Label: MarkInert, Action: domain.ActionNone}
	if current > spec.Min {
		dec = domain.Control{
			Label:  MarkDec,
			Action: domain.ActionSet,
			Field:  spec.Name,
			Target: current - spec.Step,
		}
	}
	inc := domain.Control{Label: MarkInert, Action: domain.ActionNone}
	if current < spec.Max {
		inc = domain.Control{
			Label:  MarkInc,
			Action: domain.ActionSet,
			Field:  spec.Name,
			Target: current + spec.Step,
		}
	}
	return domain.MenuRow{Controls: []domain.Control{
		{Label: spec.Name, Action: domain.ActionNone},
		{Label: strconv.Itoa(current), Action: domain.ActionNone},
		dec,
		inc,
	}}
}

func mark(on bool) string {
	if on {
		return MarkOn
	}
	return MarkOff
}
