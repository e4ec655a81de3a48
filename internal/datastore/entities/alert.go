package entities

import "time"

// Alert types. AlertTypeShortageResolved is declared for the notification
// contract but no engine code path emits it yet; the resolution lifecycle
// is an open gap in the upstream design.
const (
	AlertTypeShortagePredicted = "shortage_predicted"
	AlertTypeShortageImminent  = "shortage_imminent"
	AlertTypeShortageResolved  = "shortage_resolved"
)

// PredictionAlert is an actionable alert derived from a stored prediction.
// The notify flags tell the downstream notification subsystem which
// audiences to fan out to; delivery itself happens outside the engine.
type PredictionAlert struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	PredictionID uint   `gorm:"not null;index" json:"prediction_id"`
	AlertType    string `gorm:"size:30;not null;index" json:"alert_type"`

	Message            string `gorm:"size:2000;not null" json:"message"`
	RecommendedActions string `gorm:"size:2000;default:''" json:"recommended_actions"`

	NotifyVendors     bool `gorm:"not null;default:true" json:"notify_vendors"`
	NotifyAuthorities bool `gorm:"not null;default:false" json:"notify_authorities"`
	NotifyPublic      bool `gorm:"not null;default:false" json:"notify_public"`

	Sent      bool      `gorm:"not null;default:false;index" json:"sent"`
	SentAt    time.Time `gorm:"autoCreateTime" json:"sent_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Prediction ShortagePrediction `gorm:"foreignKey:PredictionID;constraint:OnDelete:CASCADE" json:"prediction,omitzero"`
}

// TableName returns the table name for GORM.
func (PredictionAlert) TableName() string {
	return "prediction_alerts"
}
