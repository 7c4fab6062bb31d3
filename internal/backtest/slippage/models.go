package slippage

import "github.com/quantfold/quantfold/internal/types"

// FixedBps shifts the quoted price by a constant number of basis points.
type FixedBps struct {
	bps float64
}

func NewFixedBps(bps float64) Model {
	return &FixedBps{bps: bps}
}

func (f *FixedBps) Apply(quoted float64, side types.Side, quantity float64, bar types.Bar) float64 {
	return adjust(quoted, side, f.bps/10000)
}

// VolumeImpact grows the basis-point shift with order size relative to the
// bar's volume. A bar with zero volume degrades to the base bps.
type VolumeImpact struct {
	baseBps float64
}

func NewVolumeImpact(baseBps float64) Model {
	return &VolumeImpact{baseBps: baseBps}
}

func (v *VolumeImpact) Apply(quoted float64, side types.Side, quantity float64, bar types.Bar) float64 {
	bps := v.baseBps

	if bar.Volume > 0 {
		bps = v.baseBps * (1 + quantity/bar.Volume)
	}

	return adjust(quoted, side, bps/10000)
}

// Spread shifts the quoted price by half of an assumed bid-ask spread,
// expressed as a fraction of price.
type Spread struct {
	spreadPct float64
}

func NewSpread(spreadPct float64) Model {
	return &Spread{spreadPct: spreadPct}
}

func (s *Spread) Apply(quoted float64, side types.Side, quantity float64, bar types.Bar) float64 {
	return adjust(quoted, side, s.spreadPct/2)
}
