package entities

import "time"

// Signal types carried by ContextSignal.
const (
	SignalTypeWeather           = "weather"
	SignalTypeDiseaseTrend      = "disease_trend"
	SignalTypePublicHealthAlert = "public_health_alert"
	SignalTypeSeasonal          = "seasonal"
	SignalTypeEconomic          = "economic"
)

// Trend directions for disease_trend signals.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// Alert levels for public_health_alert signals.
const (
	AlertLevelLow    = "low"
	AlertLevelMedium = "medium"
	AlertLevelHigh   = "high"
)

// ContextSignal is an external, time-bounded factor believed to influence
// demand in a region. Signals are written by the ingestion collaborator and
// read-only to the engine. A signal is active at time T iff
// effective_date <= T <= expiry_date, with a null expiry meaning open-ended.
type ContextSignal struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Region     string `gorm:"size:100;not null;index:idx_context_region_effective,priority:1" json:"region"`
	SignalType string `gorm:"size:30;not null;index" json:"signal_type"`

	// Weather payload
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Rainfall    *float64 `json:"rainfall,omitempty"`

	// Disease trend payload
	DiseaseName    string `gorm:"size:100;default:''" json:"disease_name,omitempty"`
	CaseCount      *int   `json:"case_count,omitempty"`
	TrendDirection string `gorm:"size:10;default:''" json:"trend_direction,omitempty"`

	// Public health alert payload
	AlertLevel   string `gorm:"size:20;default:''" json:"alert_level,omitempty"`
	AlertMessage string `gorm:"size:2000;default:''" json:"alert_message,omitempty"`

	EffectiveDate time.Time  `gorm:"not null;index:idx_context_region_effective,priority:2" json:"effective_date"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`

	Confidence float64   `gorm:"not null;default:1.0" json:"confidence"`
	Source     string    `gorm:"size:255;default:''" json:"source"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (ContextSignal) TableName() string {
	return "context_signals"
}

// ActiveAt reports whether the signal is in effect at t.
func (s *ContextSignal) ActiveAt(t time.Time) bool {
	if s.EffectiveDate.After(t) {
		return false
	}
	return s.ExpiryDate == nil || !s.ExpiryDate.Before(t)
}
