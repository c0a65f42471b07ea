package allocation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/roboadvisor/internal/domain"
	"github.com/aristath/roboadvisor/internal/modules/marketdata"
	"github.com/aristath/roboadvisor/internal/modules/portfolio"
	"github.com/aristath/roboadvisor/internal/modules/risk"
	"github.com/aristath/roboadvisor/internal/modules/universe"
)

// Optimizer manages advisory profiles, target allocations and the
// rebalancing plans derived from them.
type Optimizer struct {
	profiles  *ProfileRepository
	universe  *universe.Repository
	positions *portfolio.Repository
	prices    *marketdata.PriceRepository
	risk      *risk.Service
	log       zerolog.Logger
}

// NewOptimizer creates a new allocation optimizer
func NewOptimizer(
	profiles *ProfileRepository,
	universeRepo *universe.Repository,
	positions *portfolio.Repository,
	prices *marketdata.PriceRepository,
	riskService *risk.Service,
	log zerolog.Logger,
) *Optimizer {
	return &Optimizer{
		profiles:  profiles,
		universe:  universeRepo,
		positions: positions,
		prices:    prices,
		risk:      riskService,
		log:       log.With().Str("component", "allocation_optimizer").Logger(),
	}
}

// GetOrCreateProfile returns the advisory profile for a portfolio, creating
// it with defaults on first access.
func (o *Optimizer) GetOrCreateProfile(portfolioID int64) (Profile, error) {
	return o.profiles.GetOrCreate(portfolioID)
}

// UpdateProfile validates and stores new profile settings
func (o *Optimizer) UpdateProfile(portfolioID int64, riskTolerance string, horizon int, threshold float64) (Profile, error) {
	switch riskTolerance {
	case ToleranceConservative, ToleranceModerate, ToleranceAggressive:
	default:
		return Profile{}, domain.Validationf("invalid risk tolerance %q", riskTolerance)
	}
	if horizon < 1 {
		return Profile{}, domain.Validationf("investment horizon must be at least 1 year, got %d", horizon)
	}
	if threshold <= 0 {
		return Profile{}, domain.Validationf("rebalance threshold must be positive, got %.2f", threshold)
	}

	profile, err := o.profiles.GetOrCreate(portfolioID)
	if err != nil {
		return Profile{}, err
	}

	profile.RiskTolerance = riskTolerance
	profile.InvestmentHorizon = horizon
	profile.RebalanceThreshold = threshold
	if err := o.profiles.Update(profile); err != nil {
		return Profile{}, err
	}

	return o.profiles.GetOrCreate(portfolioID)
}

// SetTargetAllocations validates and stores a portfolio's target weights.
// Symbols missing from the securities universe are skipped with a warning;
// the remaining targets are swapped in atomically.
func (o *Optimizer) SetTargetAllocations(portfolioID int64, weights map[string]float64) ([]TargetAllocation, error) {
	if err := ValidateTargetWeights(weights); err != nil {
		return nil, err
	}

	profile, err := o.profiles.GetOrCreate(portfolioID)
	if err != nil {
		return nil, err
	}

	accepted := make(map[string]float64, len(weights))
	for symbol, weight := range weights {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))

		known, err := o.universe.Exists(symbol)
		if err != nil {
			return nil, err
		}
		if !known {
			o.log.Warn().Str("symbol", symbol).Msg("Skipping target for unknown security")
			continue
		}
		accepted[symbol] = weight
	}

	if err := o.profiles.ReplaceTargets(profile.ID, accepted); err != nil {
		return nil, err
	}

	return o.profiles.GetTargets(profile.ID)
}

// GetTargetAllocations returns the stored targets for a portfolio
func (o *Optimizer) GetTargetAllocations(portfolioID int64) ([]TargetAllocation, error) {
	profile, err := o.profiles.GetOrCreate(portfolioID)
	if err != nil {
		return nil, err
	}
	return o.profiles.GetTargets(profile.ID)
}

// CurrentAllocation values a portfolio's positions at the latest stored
// closes.
func (o *Optimizer) CurrentAllocation(portfolioID int64) (CurrentAllocation, error) {
	positions, prices, err := o.loadPositions(portfolioID)
	if err != nil {
		return CurrentAllocation{}, err
	}
	return ComputeCurrentAllocation(positions, prices), nil
}

// RebalancingPlan derives the trades needed to return a portfolio to its
// targets. Identical inputs always produce an identical plan.
func (o *Optimizer) RebalancingPlan(portfolioID int64) (RebalancingPlan, error) {
	profile, err := o.profiles.GetOrCreate(portfolioID)
	if err != nil {
		return RebalancingPlan{}, err
	}

	targets, err := o.profiles.GetTargets(profile.ID)
	if err != nil {
		return RebalancingPlan{}, err
	}

	positions, err := o.positions.GetByPortfolio(portfolioID)
	if err != nil {
		return RebalancingPlan{}, fmt.Errorf("failed to load positions: %w", err)
	}

	// Price the union of held and target symbols, so buys into new
	// positions get share quantities too.
	seen := make(map[string]struct{}, len(positions)+len(targets))
	symbols := make([]string, 0, len(positions)+len(targets))
	for _, pos := range positions {
		if _, ok := seen[pos.Symbol]; !ok {
			seen[pos.Symbol] = struct{}{}
			symbols = append(symbols, pos.Symbol)
		}
	}
	for _, t := range targets {
		if _, ok := seen[t.Symbol]; !ok {
			seen[t.Symbol] = struct{}{}
			symbols = append(symbols, t.Symbol)
		}
	}

	prices, err := o.prices.CurrentPrices(symbols)
	if err != nil {
		return RebalancingPlan{}, fmt.Errorf("failed to load prices: %w", err)
	}

	current := ComputeCurrentAllocation(positions, prices)
	return BuildPlan(portfolioID, targets, current, prices, profile.RebalanceThreshold, time.Now()), nil
}

// AllocationSummary combines current allocation, drift and rebalancing state
// into one view.
func (o *Optimizer) AllocationSummary(portfolioID int64) (Summary, error) {
	profile, err := o.profiles.GetOrCreate(portfolioID)
	if err != nil {
		return Summary{}, err
	}

	targets, err := o.profiles.GetTargets(profile.ID)
	if err != nil {
		return Summary{}, err
	}

	positions, prices, err := o.loadPositions(portfolioID)
	if err != nil {
		return Summary{}, err
	}
	current := ComputeCurrentAllocation(positions, prices)

	summary := Summary{
		PortfolioID: portfolioID,
		HasTargets:  len(targets) > 0,
		TotalValue:  current.TotalValue,
		Allocation:  current.Holdings,
		Drifts:      []Drift{},
	}

	if len(targets) == 0 {
		return summary, nil
	}

	summary.Drifts = ComputeDrift(targets, current, profile.RebalanceThreshold)
	for _, d := range summary.Drifts {
		if abs := math.Abs(d.Drift); abs > summary.MaxDrift {
			summary.MaxDrift = abs
		}
		if d.Action != DriftNone {
			summary.NeedsRebalancing = true
		}
	}

	return summary, nil
}

// SuggestPositionSize discounts a symbol's target weight by its current risk
// score and converts the result into value and share counts.
func (o *Optimizer) SuggestPositionSize(portfolioID int64, symbol string) (PositionSizeSuggestion, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	targets, err := o.GetTargetAllocations(portfolioID)
	if err != nil {
		return PositionSizeSuggestion{}, err
	}

	targetWeight := 0.0
	for _, t := range targets {
		if t.Symbol == symbol {
			targetWeight = t.Weight
			break
		}
	}
	if targetWeight <= 0 {
		return PositionSizeSuggestion{}, domain.Validationf("no target allocation for %s", symbol)
	}

	current, err := o.CurrentAllocation(portfolioID)
	if err != nil {
		return PositionSizeSuggestion{}, err
	}

	stockRisk, err := o.risk.StockRisk(symbol)
	if err != nil {
		return PositionSizeSuggestion{}, fmt.Errorf("failed to score %s: %w", symbol, err)
	}

	price := 0.0
	if latest, ok, err := o.prices.LatestClose(symbol); err != nil {
		return PositionSizeSuggestion{}, err
	} else if ok {
		price = latest
	}

	return ComputePositionSize(symbol, current.TotalValue, stockRisk.OverallRisk, targetWeight, price), nil
}

func (o *Optimizer) loadPositions(portfolioID int64) ([]domain.Position, map[string]float64, error) {
	positions, err := o.positions.GetByPortfolio(portfolioID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load positions: %w", err)
	}

	symbols := make([]string, len(positions))
	for i, pos := range positions {
		symbols[i] = pos.Symbol
	}

	prices, err := o.prices.CurrentPrices(symbols)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load prices: %w", err)
	}

	return positions, prices, nil
}
