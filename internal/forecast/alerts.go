package forecast

import (
	"fmt"
	"strings"

	"github.com/medvault/medvault-go/internal/datastore/entities"
)

// AlertComposer turns stored predictions into alert rows according to the
// notification policy: who gets told depends on severity, whether an alert
// exists at all depends on confidence.
type AlertComposer struct {
	cfg *entities.EngineConfig
}

// NewAlertComposer creates a composer bound to one engine configuration.
func NewAlertComposer(cfg *entities.EngineConfig) *AlertComposer {
	return &AlertComposer{cfg: cfg}
}

// MaybeAlert returns the alert for a stored prediction, or nil when the
// prediction's confidence is below the alert threshold.
func (c *AlertComposer) MaybeAlert(p *entities.ShortagePrediction) *entities.PredictionAlert {
	if p.Confidence < c.cfg.ShortageAlertThreshold {
		return nil
	}

	alertType := entities.AlertTypeShortagePredicted
	if p.Severity == entities.SeverityHigh || p.Severity == entities.SeverityCritical {
		alertType = entities.AlertTypeShortageImminent
	}

	return &entities.PredictionAlert{
		PredictionID:       p.ID,
		AlertType:          alertType,
		Message:            alertMessage(p),
		RecommendedActions: strings.Join(recommendedActions(p.Severity), "\n"),
		NotifyVendors:      true,
		NotifyAuthorities:  p.Severity == entities.SeverityHigh || p.Severity == entities.SeverityCritical,
		NotifyPublic:       p.Severity == entities.SeverityCritical,
	}
}

func alertMessage(p *entities.ShortagePrediction) string {
	return fmt.Sprintf("Potential %s shortage predicted in %s. Severity: %s. Confidence: %.1f%%",
		p.MedicalItem.Name, p.Region, p.Severity, p.Confidence*100)
}

// recommendedActions returns the action checklist for a severity tier. The
// tiers below high share one generic list.
func recommendedActions(severity string) []string {
	switch severity {
	case entities.SeverityCritical:
		return []string{
			"Immediate restocking required",
			"Contact emergency suppliers",
			"Notify health authorities",
		}
	case entities.SeverityHigh:
		return []string{
			"Accelerate restocking process",
			"Identify alternative suppliers",
			"Monitor stock levels daily",
		}
	default:
		return []string{
			"Plan for restocking",
			"Monitor demand patterns",
			"Check with regional suppliers",
		}
	}
}
