package domain

// PricingPolicy maps a position rank to its price. Implementations are pure:
// deterministic given their inputs, no hidden state.
type PricingPolicy interface {
	// Price returns the asking price of a rank. total is the current catalog
	// size for dynamic policies and is ignored by fixed ones.
	Price(position, total int) (float64, error)
	// Slots returns how many ranks exist given the catalog size.
	Slots(total int) int
	// Dynamic reports whether prices depend on the catalog size.
	Dynamic() bool
}

// StepSchedule prices a rank by a fixed increment per step away from last
// place: Base + (total-position)*Step. Rank 1 is the most expensive and the
// price moves as the catalog grows or shrinks.
type StepSchedule struct {
	Base float64
	Step float64
}

func (s StepSchedule) Price(position, total int) (float64, error) {
	if position < 1 || position > total {
		return 0, &InvalidPositionError{Position: position, Slots: total}
	}
	return s.Base + float64(total-position)*s.Step, nil
}

func (s StepSchedule) Slots(total int) int { return total }

func (s StepSchedule) Dynamic() bool { return true }

// FixedTable prices a capped pool of top ranks from a static table,
// independent of catalog size. Prices[0] is rank 1.
type FixedTable struct {
	Prices []float64
}

func (t FixedTable) Price(position, _ int) (float64, error) {
	if position < 1 || position > len(t.Prices) {
		return 0, &InvalidPositionError{Position: position, Slots: len(t.Prices)}
	}
	return t.Prices[position-1], nil
}

func (t FixedTable) Slots(_ int) int { return len(t.Prices) }

func (t FixedTable) Dynamic() bool { return false }

func DefaultStepSchedule() StepSchedule {
	return StepSchedule{Base: 20, Step: 5}
}

// DefaultTop20Table is the production price table for the top-20 pool:
// 3000 down to 2100 in steps of 100, then 2050 down to 1600 in steps of 50.
func DefaultTop20Table() FixedTable {
	prices := make([]float64, 20)
	for i := 0; i < 10; i++ {
		prices[i] = 3000 - float64(i)*100
	}
	for i := 10; i < 20; i++ {
		prices[i] = 2050 - float64(i-10)*50
	}
	return FixedTable{Prices: prices}
}
