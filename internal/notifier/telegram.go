/*

This file contains the Telegram alert channel. Message bodies are built by
pure formatting helpers so delivery and formatting stay independently
testable.

*/

package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/emity-labs/emity/internal/logger"
	"github.com/emity-labs/emity/internal/types"
	tb "gopkg.in/tucnak/telebot.v2"
)

var tgLogger = logger.GetForComponent("telegram_notifier")

// Field is one labeled line in an alert body. Fields keep their insertion
// order, unlike a map.
type Field struct {
	Label string
	Value string
}

// Telegram delivers formatted alerts to a single chat. A disabled notifier
// logs the message instead of sending, so alert code paths never branch on
// configuration.
type Telegram struct {
	bot          *tb.Bot
	chat         *tb.Chat
	enabled      bool
	dashboardURL string
}

// NewTelegram connects the bot and resolves the destination chat. With
// enabled=false no connection is attempted and every send becomes a log line.
func NewTelegram(token, chatID, dashboardURL string, enabled bool) (*Telegram, error) {
	t := &Telegram{enabled: enabled, dashboardURL: dashboardURL}
	if !enabled {
		return t, nil
	}

	bot, err := tb.NewBot(tb.Settings{
		Token:  token,
		Poller: &tb.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect telegram bot: %w", err)
	}

	chat, err := bot.ChatByID(chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve telegram chat %s: %w", chatID, err)
	}

	t.bot = bot
	t.chat = chat
	return t, nil
}

// SendMessage delivers one HTML-formatted message.
func (t *Telegram) SendMessage(text string) error {
	if !t.enabled {
		tgLogger.Info().Msg("Telegram disabled, alert logged only")
		tgLogger.Debug().Str("message", text).Msg("Suppressed telegram message")
		return nil
	}

	_, err := t.bot.Send(t.chat, text, &tb.SendOptions{ParseMode: tb.ModeHTML})
	if err != nil {
		tgLogger.Error().Err(err).Msg("Failed to send telegram message")
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	tgLogger.Debug().Msg("Telegram message delivered")
	return nil
}

// SendAlert formats and delivers one typed alert.
func (t *Telegram) SendAlert(alertType types.AlertType, title string, fields []Field, pool *types.PoolSnapshot) error {
	return t.SendMessage(BuildAlertMessage(alertType, title, fields, pool, t.dashboardURL))
}

// SendOpportunityAlert announces a high-scoring pool.
func (t *Telegram) SendOpportunityAlert(pool types.PoolSnapshot, recommendation string) error {
	fields := []Field{
		{"Recomendação", recommendation},
		{"Fee Apr", fmt.Sprintf("%.2f%%", pool.FeeAPR)},
		{"Il 7d", fmt.Sprintf("%.2f%%", pool.IL7d)},
	}
	return t.SendAlert(types.AlertOpportunity, "Nova Pool Recomendada!", fields, &pool)
}

// SendRiskAlert warns about a deteriorating position or pool.
func (t *Telegram) SendRiskAlert(pool types.PoolSnapshot, riskReason string) error {
	fields := []Field{
		{"Motivo", riskReason},
		{"Il Atual", fmt.Sprintf("%.2f%%", pool.IL7d)},
		{"Ação Sugerida", "Considere fechar posição ou ajustar range"},
	}
	return t.SendAlert(types.AlertRisk, "Alerta de Risco Detectado!", fields, &pool)
}

// SendMaintenanceAlert asks the user to adjust an out-of-range position.
func (t *Telegram) SendMaintenanceAlert(position types.Position, actionNeeded string) error {
	fields := []Field{
		{"Posição", position.PoolAddress},
		{"Range Atual", fmt.Sprintf("%.4f - %.4f", position.RangeLower, position.RangeUpper)},
		{"Tempo Em Range", fmt.Sprintf("%.1f%%", position.TimeInRange)},
		{"Ação Necessária", actionNeeded},
	}
	return t.SendAlert(types.AlertMaintenance, "Manutenção de Posição Necessária", fields, nil)
}

// SendMarketAlert reports the market gate verdict.
func (t *Telegram) SendMarketAlert(gate types.MarketGateResult) error {
	var title, emoji string
	if gate.CanOperate {
		title = "✅ Mercado Favorável para Operar"
		emoji = "🟢"
	} else {
		title = "❌ Mercado Desfavorável - NÃO OPERAR"
		emoji = "🔴"
	}

	fields := []Field{
		{"Status", fmt.Sprintf("%s %s", emoji, gate.Recommendation)},
		{"Pools Viáveis", fmt.Sprintf("%d", gate.TotalOpportunities)},
		{"Score Médio", fmt.Sprintf("%.1f", gate.MarketScore)},
		{"Motivo", gate.Reason},
		{"Próxima Verificação", "30 minutos"},
	}
	return t.SendAlert(types.AlertMarket, title, fields, nil)
}

// BuildAlertMessage renders the HTML body shared by every alert type.
func BuildAlertMessage(alertType types.AlertType, title string, fields []Field, pool *types.PoolSnapshot, dashboardURL string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<b>%s</b>\n", alertType.Label())
	fmt.Fprintf(&b, "<b>%s</b>\n", title)
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━\n\n")

	if pool != nil {
		fmt.Fprintf(&b, "🪙 <b>Pool:</b> %s\n", pool.Pair())
		fmt.Fprintf(&b, "💰 <b>TVL:</b> $%.0f\n", pool.TvlUSD)
		fmt.Fprintf(&b, "📊 <b>Volume 24h:</b> $%.0f\n", pool.Volume24hUSD)
		fmt.Fprintf(&b, "⭐ <b>Score:</b> %d/100\n\n", pool.Score)
	}

	for _, field := range fields {
		if field.Value == "" {
			continue
		}
		fmt.Fprintf(&b, "• <b>%s:</b> %s\n", field.Label, field.Value)
	}

	if dashboardURL != "" {
		fmt.Fprintf(&b, "\n🔗 <a href='%s'>Acessar Dashboard</a>\n", dashboardURL)
	}
	fmt.Fprintf(&b, "\n⏰ %s", time.Now().UTC().Format("2006-01-02 15:04 UTC"))

	return b.String()
}
