package registry

import (
	"fmt"
	"sort"

	"config-lab/domain"
	"config-lab/errors"

	"github.com/samber/lo"
)

// Registry holds the static field tables for every known feature type.
// The tables are built once at construction; feature resolution is a
// plain map lookup, never runtime dispatch by name.
type Registry struct {
	features map[domain.FeatureType][]domain.FieldSpec
}

func New() *Registry {
	return &Registry{features: featureTables()}
}

// Describe returns the declared field set of a feature, in menu order.
// The returned specs are shared and must not be mutated.
func (r *Registry) Describe(feature domain.FeatureType) ([]domain.FieldSpec, error) {
	specs, ok := r.features[feature]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownFeature, feature)
	}
	return specs, nil
}

// DefaultDraft builds a fresh draft holding every declared field at its
// default value. Each call returns an independent copy.
func (r *Registry) DefaultDraft(feature domain.FeatureType) (domain.Draft, error) {
	specs, err := r.Describe(feature)
	if err != nil {
		return nil, err
	}
	draft := make(domain.Draft, len(specs))
	for _, spec := range specs {
		switch spec.Kind {
		case domain.KindBool:
			draft[spec.Name] = domain.BoolValue(spec.DefaultBool)
		case domain.KindBoundedInt:
			draft[spec.Name] = domain.IntValue(spec.DefaultInt)
		case domain.KindNestedBool:
			pair := make(map[string]bool, len(spec.Subfields))
			for _, sub := range spec.Subfields {
				pair[sub.Name] = sub.DefaultBool
			}
			draft[spec.Name] = domain.PairValue(pair)
		}
	}
	return draft, nil
}

// Features lists the known feature types in stable order.
func (r *Registry) Features() []domain.FeatureType {
	out := make([]domain.FeatureType, 0, len(r.features))
	for feature := range r.features {
		out = append(out, feature)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Find returns the spec declared under the given name.
func Find(specs []domain.FieldSpec, name string) (domain.FieldSpec, bool) {
	for _, spec := range specs {
		if spec.Name == name {
			return spec, true
		}
	}
	return domain.FieldSpec{}, false
}

func boolField(name string, def bool) domain.FieldSpec {
	return domain.FieldSpec{Name: name, Kind: domain.KindBool, DefaultBool: def}
}

func intField(name string, def, min, max, step int) domain.FieldSpec {
	return domain.FieldSpec{
		Name: name, Kind: domain.KindBoundedInt,
		DefaultInt: def, Min: min, Max: max, Step: step,
	}
}

func pairField(name string, subs ...domain.FieldSpec) domain.FieldSpec {
	return domain.FieldSpec{Name: name, Kind: domain.KindNestedBool, Subfields: subs}
}

func toggles(names ...string) []domain.FieldSpec {
	return lo.Map(names, func(name string, _ int) domain.FieldSpec {
		return boolField(name, false)
	})
}

// featureTables declares, per feature, the field set in menu order.
// Every menu starts with "default" (the using-defaults marker whose
// control doubles as reset-to-default) and the defaults mirror the
// moderation subsystems' shipped configurations.
func featureTables() map[domain.FeatureType][]domain.FieldSpec {
	tables := map[domain.FeatureType][]domain.FieldSpec{
		domain.FeatureCaptcha: join(
			[]domain.FieldSpec{
				boolField("default", true),
				boolField("delete", true),
				boolField("restrict", false),
			},
			toggles("ban", "forgive", "hint", "pass", "pin", "qns", "manual"),
		),
		domain.FeatureClean: join(
			[]domain.FieldSpec{
				boolField("default", true),
				boolField("delete", true),
				boolField("restrict", false),
				boolField("friend", true),
				boolField("clean", false),
			},
			toggles(
				"con", "loc", "vdn", "voi", "ast", "aud", "bmd", "doc",
				"gam", "gif", "via", "vid", "ser", "sti", "aff", "emo",
				"exe", "iml", "pho", "sho", "tgl", "tgp", "qrc", "sde",
				"tcl", "ttd",
			),
		),
		domain.FeatureLang: {
			boolField("default", true),
			boolField("delete", true),
			boolField("restrict", false),
			pairField("name", boolField("default", true), boolField("enable", true)),
			pairField("text", boolField("default", true), boolField("enable", true)),
			pairField("sticker", boolField("default", true), boolField("enable", true)),
			pairField("bio", boolField("default", true), boolField("enable", true)),
			boolField("spc", false),
			boolField("spe", false),
		},
		domain.FeatureLong: {
			boolField("default", true),
			boolField("delete", true),
			boolField("restrict", false),
			intField("limit", 1500, 500, 10000, 500),
		},
		domain.FeatureNoFlood: {
			boolField("default", true),
			boolField("delete", true),
			boolField("restrict", false),
			intField("time", 10, 5, 60, 5),
			intField("limit", 5, 2, 20, 1),
			boolField("purge", false),
		},
		domain.FeatureNoPorn: {
			boolField("default", true),
			boolField("delete", true),
			boolField("restrict", false),
			boolField("channel", false),
		},
		domain.FeatureNoSpam: join(
			[]domain.FieldSpec{
				boolField("default", true),
				boolField("delete", true),
				boolField("restrict", false),
			},
			toggles(
				"nick", "bio", "avatar", "message", "ocr", "sticker",
				"bot", "new", "deleter", "reporter", "scorer", "ml",
			),
		),
		domain.FeatureRecheck: {
			boolField("default", true),
			boolField("delete", true),
			boolField("restrict", false),
		},
		domain.FeatureTip: join(
			[]domain.FieldSpec{boolField("default", true)},
			toggles(
				"captcha", "alone", "clean", "ot", "rm", "welcome",
				"keyword", "white", "cancel", "hold", "channel", "resend",
			),
		),
		domain.FeatureUser: join(
			[]domain.FieldSpec{
				boolField("default", true),
				boolField("delete", true),
			},
			toggles("gb", "gr", "gd", "sb", "sr", "sd"),
		),
		domain.FeatureWarn: {
			boolField("default", true),
			boolField("delete", true),
			intField("limit", 3, 2, 5, 1),
			boolField("mention", false),
			pairField("report", boolField("auto", false), boolField("manual", true)),
		},
	}
	return tables
}

func join(head []domain.FieldSpec, tail []domain.FieldSpec) []domain.FieldSpec {
	return append(append([]domain.FieldSpec{}, head...), tail...)
}
