package types

import "time"

// AlertType classifies system alerts for routing and display.
type AlertType string

const (
	AlertOpportunity AlertType = "OPPORTUNITY"
	AlertRisk        AlertType = "RISK"
	AlertMaintenance AlertType = "MAINTENANCE"
	AlertMarket      AlertType = "MARKET"
	AlertSystem      AlertType = "SYSTEM"
	AlertPosition    AlertType = "POSITION"
)

// Label returns the Telegram-facing header for the alert type.
func (t AlertType) Label() string {
	switch t {
	case AlertOpportunity:
		return "🎯 OPORTUNIDADE"
	case AlertRisk:
		return "⚠️ RISCO"
	case AlertMaintenance:
		return "🔧 MANUTENÇÃO"
	case AlertMarket:
		return "📊 MERCADO"
	case AlertSystem:
		return "💻 SISTEMA"
	case AlertPosition:
		return "📍 POSIÇÃO"
	default:
		return string(t)
	}
}

// Alert is one persisted system alert.
type Alert struct {
	ID          int64     `json:"id"`
	Type        AlertType `json:"type"`
	PoolAddress string    `json:"pool_address,omitempty"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Data        string    `json:"data,omitempty"` // JSON blob with alert-specific fields
	Severity    string    `json:"severity"`       // info | success | warning | critical
	SentTG      bool      `json:"sent_telegram"`
	CreatedAt   time.Time `json:"created_at"`
}
