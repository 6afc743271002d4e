package domain

import "strings"

// FeatureType identifies which moderation subsystem a configuration
// session edits. Each feature owns a fixed field set in the registry
// and a dedicated receiver on the exchange.
type FeatureType string

const (
	FeatureCaptcha FeatureType = "captcha"
	FeatureClean   FeatureType = "clean"
	FeatureLang    FeatureType = "lang"
	FeatureLong    FeatureType = "long"
	FeatureNoFlood FeatureType = "noflood"
	FeatureNoPorn  FeatureType = "noporn"
	FeatureNoSpam  FeatureType = "nospam"
	FeatureRecheck FeatureType = "recheck"
	FeatureTip     FeatureType = "tip"
	FeatureUser    FeatureType = "user"
	FeatureWarn    FeatureType = "warn"
)

// Receiver is the exchange-channel receiver name for this feature.
func (f FeatureType) Receiver() string {
	return strings.ToUpper(string(f))
}
