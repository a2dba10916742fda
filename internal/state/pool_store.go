// ./internal/state/pool_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/emity-labs/emity/internal/types"
	"github.com/rs/zerolog/log"
)

// UpsertPoolSnapshot inserts or replaces the snapshot keyed by address.
// Snapshots are superseded, not versioned: the previous row is overwritten on
// every scan cycle.
func UpsertPoolSnapshot(snapshot types.PoolSnapshot) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	rangesJSON, err := json.Marshal(snapshot.Ranges)
	if err != nil {
		return fmt.Errorf("failed to marshal ranges_data: %w", err)
	}
	simulationsJSON, err := json.Marshal(snapshot.Simulations)
	if err != nil {
		return fmt.Errorf("failed to marshal simulations_data: %w", err)
	}

	query := `
		INSERT INTO pools (
			address, dex, chain, token0_symbol, token1_symbol, fee_tier,
			tvl_usd, volume_24h, fees_24h, current_price, price_change_24h,
			volatility, il_7d, fee_apr, apr_7d, score, recommendation,
			explanation, ranges_data, simulations_data, last_analyzed, last_update
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		ON CONFLICT (address) DO UPDATE SET
			dex = EXCLUDED.dex,
			chain = EXCLUDED.chain,
			token0_symbol = EXCLUDED.token0_symbol,
			token1_symbol = EXCLUDED.token1_symbol,
			fee_tier = EXCLUDED.fee_tier,
			tvl_usd = EXCLUDED.tvl_usd,
			volume_24h = EXCLUDED.volume_24h,
			fees_24h = EXCLUDED.fees_24h,
			current_price = EXCLUDED.current_price,
			price_change_24h = EXCLUDED.price_change_24h,
			volatility = EXCLUDED.volatility,
			il_7d = EXCLUDED.il_7d,
			fee_apr = EXCLUDED.fee_apr,
			apr_7d = EXCLUDED.apr_7d,
			score = EXCLUDED.score,
			recommendation = EXCLUDED.recommendation,
			explanation = EXCLUDED.explanation,
			ranges_data = EXCLUDED.ranges_data,
			simulations_data = EXCLUDED.simulations_data,
			last_analyzed = EXCLUDED.last_analyzed,
			last_update = EXCLUDED.last_update;
	`

	_, err = DB.Exec(
		query,
		strings.ToLower(snapshot.Address), snapshot.Dex, snapshot.Chain,
		snapshot.Token0Symbol, snapshot.Token1Symbol, snapshot.FeeTier,
		snapshot.TvlUSD, snapshot.Volume24hUSD, snapshot.Fees24hUSD,
		snapshot.CurrentPrice, snapshot.PriceChange24h, snapshot.Volatility,
		snapshot.IL7d, snapshot.FeeAPR, snapshot.APR7d, snapshot.Score,
		snapshot.Recommendation, snapshot.Explanation,
		rangesJSON, simulationsJSON,
		nullableTime(snapshot.LastAnalyzed), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pool snapshot: %w", err)
	}

	return nil
}

// GetPoolSnapshot loads one pool by address (case-insensitive).
func GetPoolSnapshot(address string) (types.PoolSnapshot, error) {
	if DB == nil {
		return types.PoolSnapshot{}, fmt.Errorf("database not initialized")
	}

	row := DB.QueryRow(selectPoolColumns+" FROM pools WHERE address = $1", strings.ToLower(address))
	snapshot, err := scanPoolRow(row)
	if err == sql.ErrNoRows {
		return types.PoolSnapshot{}, fmt.Errorf("pool %s not found", address)
	}
	if err != nil {
		return types.PoolSnapshot{}, fmt.Errorf("failed to load pool %s: %w", address, err)
	}
	return snapshot, nil
}

// GetPoolSnapshots loads pools with score >= minScore, best first, capped at
// limit rows.
func GetPoolSnapshots(minScore, limit int) ([]types.PoolSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := DB.Query(
		selectPoolColumns+" FROM pools WHERE score >= $1 ORDER BY score DESC, tvl_usd DESC LIMIT $2",
		minScore, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pools: %w", err)
	}
	defer rows.Close()

	var snapshots []types.PoolSnapshot
	for rows.Next() {
		snapshot, err := scanPoolRow(rows)
		if err != nil {
			log.Error().Err(err).Msg("Skipping unreadable pool row")
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pools: %w", err)
	}

	return snapshots, nil
}

const selectPoolColumns = `
	SELECT address, dex, chain, token0_symbol, token1_symbol, fee_tier,
		tvl_usd, volume_24h, fees_24h, current_price, price_change_24h,
		volatility, il_7d, fee_apr, apr_7d, score, recommendation,
		explanation, ranges_data, simulations_data, last_analyzed, last_update`

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPoolRow(row rowScanner) (types.PoolSnapshot, error) {
	var (
		snapshot        types.PoolSnapshot
		recommendation  sql.NullString
		explanation     sql.NullString
		rangesJSON      []byte
		simulationsJSON []byte
		lastAnalyzed    sql.NullTime
		lastUpdate      sql.NullTime
	)

	err := row.Scan(
		&snapshot.Address, &snapshot.Dex, &snapshot.Chain,
		&snapshot.Token0Symbol, &snapshot.Token1Symbol, &snapshot.FeeTier,
		&snapshot.TvlUSD, &snapshot.Volume24hUSD, &snapshot.Fees24hUSD,
		&snapshot.CurrentPrice, &snapshot.PriceChange24h, &snapshot.Volatility,
		&snapshot.IL7d, &snapshot.FeeAPR, &snapshot.APR7d, &snapshot.Score,
		&recommendation, &explanation, &rangesJSON, &simulationsJSON,
		&lastAnalyzed, &lastUpdate,
	)
	if err != nil {
		return types.PoolSnapshot{}, err
	}

	snapshot.Recommendation = recommendation.String
	snapshot.Explanation = explanation.String
	if lastAnalyzed.Valid {
		snapshot.LastAnalyzed = lastAnalyzed.Time
	}
	if lastUpdate.Valid {
		snapshot.LastUpdate = lastUpdate.Time
	}

	if len(rangesJSON) > 0 {
		if err := json.Unmarshal(rangesJSON, &snapshot.Ranges); err != nil {
			log.Warn().Err(err).Str("pool", snapshot.Address).Msg("Discarding unreadable ranges_data blob")
			snapshot.Ranges = nil
		}
	}
	if len(simulationsJSON) > 0 {
		simulations, err := DecodeSimulationSet(simulationsJSON)
		if err != nil {
			log.Warn().Err(err).Str("pool", snapshot.Address).Msg("Discarding unreadable simulations_data blob")
		} else {
			snapshot.Simulations = simulations
		}
	}

	return snapshot, nil
}

// DecodeSimulationSet parses a persisted simulations blob. Older blobs may
// lack the net_after_gas field, so the decode substitutes net_return for it
// here at the boundary; the risk engine only ever sees the normalized form.
func DecodeSimulationSet(blob []byte) (types.SimulationSet, error) {
	var raw map[types.Strategy]map[types.Horizon]map[string]float64
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode simulations blob: %w", err)
	}

	set := make(types.SimulationSet, len(raw))
	for strategy, horizons := range raw {
		set[strategy] = make(map[types.Horizon]types.SimulationResult, len(horizons))
		for horizon, fields := range horizons {
			result := types.SimulationResult{
				TimeInRange:     fields["time_in_range"],
				FeesCollected:   fields["fees_collected"],
				ImpermanentLoss: fields["impermanent_loss"],
				NetReturn:       fields["net_return"],
				GasCost:         fields["gas_cost"],
			}
			if netAfterGas, ok := fields["net_after_gas"]; ok {
				result.NetAfterGas = netAfterGas
			} else {
				result.NetAfterGas = result.NetReturn
			}
			set[strategy][horizon] = result
		}
	}

	return set, nil
}

func nullableTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
