package models

import "time"

// Feature flag keys stored in the settings table.
const (
	FeatureLeave        = "feature.leave.enabled"
	FeatureResult       = "feature.result.enabled"
	FeatureRegistration = "feature.registration.enabled"
	FeatureMessaging    = "feature.messaging.enabled"
	FeatureAnalytics    = "feature.analytics.enabled"
)

// Setting is a persisted administrator toggle.
type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedBy *string   `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
