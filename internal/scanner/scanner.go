/*

This file contains the pool snapshot provider: it fetches pair market data
from the DEX pairs API behind a circuit breaker, validates each entry, and
falls back to a static snapshot set when the provider is unavailable.

*/

package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/emity-labs/emity/internal/analyzer"
	"github.com/emity-labs/emity/internal/logger"
	"github.com/emity-labs/emity/internal/types"
	"github.com/sony/gobreaker"
)

var scanLogger = logger.GetForComponent("pool_scanner")

var ErrAPIResponseInvalid = errors.New("API response validation failed")
var ErrNoPairsReturned = errors.New("no pairs returned by provider")

// Pools tracked on every scan cycle: high-liquidity Arbitrum pairs.
var defaultPairQueries = []string{
	"WETH USDC",
	"WBTC USDC",
	"ARB USDC",
	"WETH ARB",
}

// Scanner fetches pool snapshots from the pairs API. Provider failures trip a
// circuit breaker so a flapping upstream does not stall scan cycles; while
// the breaker is open the scanner serves fallback data.
type Scanner struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// New builds a scanner against the given pairs API base URL.
func New(baseURL string, timeout time.Duration) *Scanner {
	settings := gobreaker.Settings{
		Name:    "pairs_api",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			scanLogger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}

	return &Scanner{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// pairsResponse mirrors the provider's search payload; only the fields the
// snapshot needs are decoded.
type pairsResponse struct {
	Pairs []pairEntry `json:"pairs"`
}

type pairEntry struct {
	PairAddress string `json:"pairAddress"`
	DexID       string `json:"dexId"`
	ChainID     string `json:"chainId"`
	BaseToken   struct {
		Symbol string `json:"symbol"`
	} `json:"baseToken"`
	QuoteToken struct {
		Symbol string `json:"symbol"`
	} `json:"quoteToken"`
	PriceUSD  string `json:"priceUsd"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
}

// ScanPools fetches snapshots for all tracked pairs. Each query runs
// independently: one failing pair does not block the others, and partial
// results are returned. When every query fails the static fallback set is
// returned so downstream analysis always has data.
func (s *Scanner) ScanPools(ctx context.Context) []types.PoolSnapshot {
	var snapshots []types.PoolSnapshot

	for _, query := range defaultPairQueries {
		pairSnapshots, err := s.fetchPairs(ctx, query)
		if err != nil {
			scanLogger.Warn().
				Err(err).
				Str("query", query).
				Msg("Pair query failed, continuing with remaining queries")
			continue
		}
		snapshots = append(snapshots, pairSnapshots...)
	}

	if len(snapshots) == 0 {
		scanLogger.Warn().Msg("All pair queries failed, serving fallback snapshots")
		return FallbackSnapshots()
	}

	scanLogger.Info().
		Int("count", len(snapshots)).
		Msg("Scan cycle fetched pool snapshots")
	return snapshots
}

// fetchPairs runs one search query through the circuit breaker and converts
// the best-liquidity result into a snapshot.
func (s *Scanner) fetchPairs(ctx context.Context, query string) ([]types.PoolSnapshot, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.doSearch(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.PoolSnapshot), nil
}

func (s *Scanner) doSearch(ctx context.Context, query string) ([]types.PoolSnapshot, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s", s.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build pairs request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pairs API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrAPIResponseInvalid, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read pairs response: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrAPIResponseInvalid)
	}

	var parsed pairsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse pairs JSON: %w", err)
	}
	if len(parsed.Pairs) == 0 {
		return nil, ErrNoPairsReturned
	}

	// Keep only the deepest pool per query to avoid thin duplicates
	best := parsed.Pairs[0]
	for _, pair := range parsed.Pairs[1:] {
		if pair.Liquidity.USD > best.Liquidity.USD {
			best = pair
		}
	}

	snapshot, err := toSnapshot(best)
	if err != nil {
		return nil, err
	}
	return []types.PoolSnapshot{snapshot}, nil
}

// toSnapshot validates one pair entry and converts it into a normalized
// snapshot ready for analysis.
func toSnapshot(pair pairEntry) (types.PoolSnapshot, error) {
	if pair.PairAddress == "" {
		return types.PoolSnapshot{}, fmt.Errorf("%w: missing pair address", ErrAPIResponseInvalid)
	}

	price, err := strconv.ParseFloat(pair.PriceUSD, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		price = 0 // NormalizeSnapshot substitutes the default
	}

	snapshot := types.PoolSnapshot{
		Address:        pair.PairAddress,
		Dex:            pair.DexID,
		Chain:          pair.ChainID,
		Token0Symbol:   pair.BaseToken.Symbol,
		Token1Symbol:   pair.QuoteToken.Symbol,
		FeeTier:        0.3,
		TvlUSD:         pair.Liquidity.USD,
		Volume24hUSD:   pair.Volume.H24,
		CurrentPrice:   price,
		PriceChange24h: pair.PriceChange.H24,
	}

	return analyzer.NormalizeSnapshot(snapshot), nil
}

// FallbackSnapshots returns a static snapshot set representative of the
// tracked pairs, used when the provider is unreachable so scheduled analysis
// and alerting keep functioning.
func FallbackSnapshots() []types.PoolSnapshot {
	snapshots := []types.PoolSnapshot{
		{
			Address:        "0xc31e54c7a869b9fcbecc14363cf510d1c41fa443",
			Dex:            "uniswap",
			Chain:          "arbitrum",
			Token0Symbol:   "WETH",
			Token1Symbol:   "USDC",
			FeeTier:        0.05,
			TvlUSD:         15_000_000,
			Volume24hUSD:   8_500_000,
			CurrentPrice:   3450.50,
			PriceChange24h: 2.5,
		},
		{
			Address:        "0x2f5e87c9312fa29aed5c179e456625d79015299c",
			Dex:            "uniswap",
			Chain:          "arbitrum",
			Token0Symbol:   "WBTC",
			Token1Symbol:   "USDC",
			FeeTier:        0.3,
			TvlUSD:         9_200_000,
			Volume24hUSD:   3_100_000,
			CurrentPrice:   67890.10,
			PriceChange24h: 1.8,
		},
		{
			Address:        "0xcda53b1f66614552f834ceef361a8d12a0b8dad8",
			Dex:            "uniswap",
			Chain:          "arbitrum",
			Token0Symbol:   "ARB",
			Token1Symbol:   "USDC",
			FeeTier:        0.3,
			TvlUSD:         4_800_000,
			Volume24hUSD:   1_900_000,
			CurrentPrice:   0.82,
			PriceChange24h: -3.2,
		},
	}

	normalized := make([]types.PoolSnapshot, 0, len(snapshots))
	for _, snapshot := range snapshots {
		normalized = append(normalized, analyzer.NormalizeSnapshot(snapshot))
	}
	return normalized
}
