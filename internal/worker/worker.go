/*

This file contains the background worker: scheduled scan, opportunity, risk,
market, and maintenance cycles over the persisted pool set.

The pure decision helpers (shouldAlertOpportunity, riskReasons,
needsMaintenance) are kept free of I/O so the alerting thresholds stay
testable without a database or bot.

*/

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/emity-labs/emity/internal/analyzer"
	"github.com/emity-labs/emity/internal/config"
	"github.com/emity-labs/emity/internal/logger"
	"github.com/emity-labs/emity/internal/risk"
	"github.com/emity-labs/emity/internal/scanner"
	"github.com/emity-labs/emity/internal/state"
	"github.com/emity-labs/emity/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// Pools at or above this score trigger an opportunity alert.
	opportunityScoreThreshold = 75
	// Re-alerting the same pool is suppressed for this long.
	opportunityCooldown = 6 * time.Hour
	// IL above this percent on an active position is a risk alert.
	ilRiskThreshold = 5.0
	// Positions in range less than this percent of the time need maintenance.
	maintenanceTimeInRange = 50.0
)

// Notifier is the alert channel the worker publishes to. *notifier.Telegram
// satisfies it.
type Notifier interface {
	SendOpportunityAlert(pool types.PoolSnapshot, recommendation string) error
	SendRiskAlert(pool types.PoolSnapshot, riskReason string) error
	SendMaintenanceAlert(position types.Position, actionNeeded string) error
	SendMarketAlert(gate types.MarketGateResult) error
}

// Worker runs the scheduled cycles of the system.
type Worker struct {
	logger   zerolog.Logger
	scanner  *scanner.Scanner
	telegram Notifier

	alertHistory map[string]time.Time
	cycleCount   int
}

// New creates a worker around the given scanner and notifier.
func New(sc *scanner.Scanner, tg Notifier) *Worker {
	return &Worker{
		logger:       logger.GetForComponent("worker"),
		scanner:      sc,
		telegram:     tg,
		alertHistory: make(map[string]time.Time),
	}
}

// RunLoop drives the three cadences (scan, alert checks, market check) until
// the context is cancelled. One full pass runs immediately at startup.
func (w *Worker) RunLoop(ctx context.Context) {
	w.logger.Info().
		Dur("scanInterval", config.ScanInterval).
		Dur("alertInterval", config.AlertInterval).
		Dur("marketCheckInterval", config.MarketCheckInterval).
		Msg("Starting worker loop")

	scanTicker := time.NewTicker(config.ScanInterval)
	alertTicker := time.NewTicker(config.AlertInterval)
	marketTicker := time.NewTicker(config.MarketCheckInterval)
	defer scanTicker.Stop()
	defer alertTicker.Stop()
	defer marketTicker.Stop()

	w.runAllChecks(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Worker loop stopped due to context cancellation")
			return
		case <-scanTicker.C:
			w.RunScanCycle(ctx)
		case <-alertTicker.C:
			w.CheckOpportunities()
			w.CheckRisks()
			w.CheckStopLosses()
			w.CheckMaintenance()
		case <-marketTicker.C:
			w.CheckMarketConditions()
		}
	}
}

// runAllChecks executes every cycle once, used at startup.
func (w *Worker) runAllChecks(ctx context.Context) {
	w.RunScanCycle(ctx)
	w.CheckOpportunities()
	w.CheckRisks()
	w.CheckStopLosses()
	w.CheckMarketConditions()
	w.CheckMaintenance()
}

// RunScanCycle fetches fresh snapshots, analyzes them, and persists the
// results.
func (w *Worker) RunScanCycle(ctx context.Context) {
	w.cycleCount++
	cycleID := uuid.New().String()
	cycleLogger := w.logger.With().Str("cycleID", cycleID).Int("cycle", w.cycleCount).Logger()
	cycleLogger.Info().Msg("Starting scan cycle")

	snapshots := w.scanner.ScanPools(ctx)
	if len(snapshots) == 0 {
		cycleLogger.Warn().Msg("Scan cycle produced no snapshots")
		return
	}

	analyzed := analyzer.AnalyzeAll(snapshots)

	saved := 0
	for _, snapshot := range analyzed {
		if err := state.UpsertPoolSnapshot(snapshot); err != nil {
			cycleLogger.Error().Err(err).Str("pool", snapshot.Address).Msg("Failed to persist snapshot")
			continue
		}
		saved++
	}

	w.recordSystemAlert(
		"Scan Automático Completo",
		fmt.Sprintf("Scan executado com sucesso: %d pools analisadas", saved),
	)

	cycleLogger.Info().Int("analyzed", len(analyzed)).Int("saved", saved).Msg("Scan cycle completed")
}

// CheckOpportunities alerts on newly attractive pools, deduplicating per pool
// within the cooldown window.
func (w *Worker) CheckOpportunities() {
	pools, err := state.GetPoolSnapshots(70, 100)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to load pools for opportunity check")
		return
	}

	now := time.Now().UTC()
	for _, pool := range pools {
		if !shouldAlertOpportunity(pool, w.alertHistory[pool.Address], now) {
			continue
		}

		recommendation := pool.Recommendation
		if recommendation == "" {
			recommendation = "Pool com excelente pontuação institucional"
		}

		data, _ := json.Marshal(map[string]interface{}{
			"score": pool.Score,
			"tvl":   pool.TvlUSD,
			"apr":   pool.FeeAPR,
		})
		alertID, err := state.SaveAlert(types.Alert{
			Type:        types.AlertOpportunity,
			PoolAddress: pool.Address,
			Title:       fmt.Sprintf("Nova Oportunidade: %s", pool.Pair()),
			Message:     recommendation,
			Data:        string(data),
			Severity:    "success",
		})
		if err != nil {
			w.logger.Error().Err(err).Str("pool", pool.Address).Msg("Failed to persist opportunity alert")
		}

		if err := w.telegram.SendOpportunityAlert(pool, recommendation); err != nil {
			w.logger.Error().Err(err).Str("pool", pool.Address).Msg("Failed to deliver opportunity alert")
		} else if alertID > 0 {
			if err := state.MarkAlertSent(alertID); err != nil {
				w.logger.Error().Err(err).Int64("alertID", alertID).Msg("Failed to mark alert sent")
			}
		}

		w.alertHistory[pool.Address] = now
	}
}

// shouldAlertOpportunity decides whether a pool deserves a fresh opportunity
// alert given its last alert time.
func shouldAlertOpportunity(pool types.PoolSnapshot, lastAlert, now time.Time) bool {
	if pool.Score < opportunityScoreThreshold {
		return false
	}
	if !lastAlert.IsZero() && now.Sub(lastAlert) < opportunityCooldown {
		return false
	}
	return true
}

// CheckRisks scans active positions for IL and gas economics problems.
func (w *Worker) CheckRisks() {
	positions, err := state.GetActivePositions()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to load positions for risk check")
		return
	}

	for _, position := range positions {
		pool, err := state.GetPoolSnapshot(position.PoolAddress)
		if err != nil {
			continue
		}

		for _, reason := range riskReasons(pool) {
			if err := w.telegram.SendRiskAlert(pool, reason); err != nil {
				w.logger.Error().Err(err).Str("pool", pool.Address).Msg("Failed to deliver risk alert")
			}
			if _, err := state.SaveAlert(types.Alert{
				Type:        types.AlertRisk,
				PoolAddress: pool.Address,
				Title:       "Alerta de Risco",
				Message:     reason,
				Severity:    "warning",
				SentTG:      true,
			}); err != nil {
				w.logger.Error().Err(err).Str("pool", pool.Address).Msg("Failed to persist risk alert")
			}
		}
	}
}

// riskReasons lists the risk conditions a pool currently triggers: high IL,
// or gas exceeding 20% of the best projected 30d return.
func riskReasons(pool types.PoolSnapshot) []string {
	var reasons []string

	if pool.IL7d > ilRiskThreshold {
		reasons = append(reasons, fmt.Sprintf("Impermanent Loss alto: %.2f%%", pool.IL7d))
	}

	bestNet30d := 0.0
	for _, strategy := range types.Strategies {
		if horizons, ok := pool.Simulations[strategy]; ok {
			if sim, ok := horizons[types.Horizon30d]; ok && sim.NetReturn > bestNet30d {
				bestNet30d = sim.NetReturn
			}
		}
	}
	if bestNet30d > 0 && config.GasCostUSD > bestNet30d*0.2 {
		reasons = append(reasons, fmt.Sprintf(
			"Gas cost muito alto: $%.2f (%.1f%% do retorno)",
			config.GasCostUSD, config.GasCostUSD/bestNet30d*100,
		))
	}

	return reasons
}

// CheckMarketConditions evaluates the whole pool set through the risk engine
// and reports the verdict.
func (w *Worker) CheckMarketConditions() {
	cfg, err := state.GetRiskConfig()
	if err != nil {
		w.logger.Warn().Err(err).Msg("Config unavailable, using defaults for market check")
	}
	engine := risk.NewEngine(cfg)

	pools, err := state.GetPoolSnapshots(0, 100)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to load pools for market check")
		return
	}

	gate := engine.CheckMarketConditions(pools)

	if err := w.telegram.SendMarketAlert(gate); err != nil {
		w.logger.Error().Err(err).Msg("Failed to deliver market alert")
	}

	severity := "info"
	if !gate.CanOperate {
		severity = "warning"
	}
	data, _ := json.Marshal(gate)
	if _, err := state.SaveAlert(types.Alert{
		Type:     types.AlertMarket,
		Title:    fmt.Sprintf("Mercado: %s", gate.Reason),
		Message:  gate.Recommendation,
		Data:     string(data),
		Severity: severity,
		SentTG:   true,
	}); err != nil {
		w.logger.Error().Err(err).Msg("Failed to persist market alert")
	}

	w.logger.Info().
		Bool("canOperate", gate.CanOperate).
		Float64("marketScore", gate.MarketScore).
		Msg("Market check completed")
}

// CheckMaintenance flags active positions that have drifted out of range.
func (w *Worker) CheckMaintenance() {
	positions, err := state.GetActivePositions()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to load positions for maintenance check")
		return
	}

	for _, position := range positions {
		if !needsMaintenance(position) {
			continue
		}

		actionNeeded := "Ajustar range - posição está fora do range na maior parte do tempo"
		if err := w.telegram.SendMaintenanceAlert(position, actionNeeded); err != nil {
			w.logger.Error().Err(err).Str("pool", position.PoolAddress).Msg("Failed to deliver maintenance alert")
		}
		if _, err := state.SaveAlert(types.Alert{
			Type:        types.AlertMaintenance,
			PoolAddress: position.PoolAddress,
			Title:       "Manutenção Necessária",
			Message:     actionNeeded,
			Severity:    "warning",
			SentTG:      true,
		}); err != nil {
			w.logger.Error().Err(err).Str("pool", position.PoolAddress).Msg("Failed to persist maintenance alert")
		}
	}
}

// needsMaintenance reports whether a position spends too little time in its
// range to keep earning fees.
func needsMaintenance(position types.Position) bool {
	return position.TimeInRange < maintenanceTimeInRange
}

// CheckStopLosses closes out positions that breached the configured stop
// loss and alerts the user.
func (w *Worker) CheckStopLosses() {
	cfg, err := state.GetRiskConfig()
	if err != nil {
		w.logger.Warn().Err(err).Msg("Config unavailable, using defaults for stop-loss check")
	}
	engine := risk.NewEngine(cfg)

	positions, err := state.GetActivePositions()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to load positions for stop-loss check")
		return
	}

	for _, position := range positions {
		decision := engine.ValidateStopLoss(position.PnlUSD, position.CapitalUSD)
		if !decision.ShouldStop {
			continue
		}

		w.logger.Warn().
			Int64("positionID", position.ID).
			Str("pool", position.PoolAddress).
			Float64("pnlUSD", position.PnlUSD).
			Msg("Stop loss triggered")

		if _, err := state.SaveAlert(types.Alert{
			Type:        types.AlertPosition,
			PoolAddress: position.PoolAddress,
			Title:       "Stop Loss Acionado",
			Message:     decision.Reason,
			Severity:    "critical",
			SentTG:      true,
		}); err != nil {
			w.logger.Error().Err(err).Msg("Failed to persist stop-loss alert")
		}

		if err := state.ClosePosition(position.ID, position.PnlUSD); err != nil {
			w.logger.Error().Err(err).Int64("positionID", position.ID).Msg("Failed to close stopped position")
		}

		pool, err := state.GetPoolSnapshot(position.PoolAddress)
		if err == nil {
			if err := w.telegram.SendRiskAlert(pool, decision.Reason); err != nil {
				w.logger.Error().Err(err).Msg("Failed to deliver stop-loss alert")
			}
		}
	}
}

// recordSystemAlert persists an informational system alert.
func (w *Worker) recordSystemAlert(title, message string) {
	if _, err := state.SaveAlert(types.Alert{
		Type:     types.AlertSystem,
		Title:    title,
		Message:  message,
		Severity: "info",
	}); err != nil {
		w.logger.Error().Err(err).Msg("Failed to persist system alert")
	}
}
