package commission

// Flat charges a fixed fee per trade regardless of size.
type Flat struct {
	fee float64
}

func NewFlat(fee float64) Model {
	return &Flat{fee: fee}
}

func (f *Flat) Calculate(quantity float64, fillPrice float64) float64 {
	if quantity <= 0 {
		return 0
	}

	return f.fee
}

// PerShare charges a fixed rate per share.
type PerShare struct {
	rate float64
}

func NewPerShare(rate float64) Model {
	return &PerShare{rate: rate}
}

func (p *PerShare) Calculate(quantity float64, fillPrice float64) float64 {
	if quantity <= 0 {
		return 0
	}

	return p.rate * quantity
}

// Percent charges a percentage of the filled notional.
type Percent struct {
	rate float64
}

func NewPercent(rate float64) Model {
	return &Percent{rate: rate}
}

func (p *Percent) Calculate(quantity float64, fillPrice float64) float64 {
	if quantity <= 0 {
		return 0
	}

	return p.rate * quantity * fillPrice
}
