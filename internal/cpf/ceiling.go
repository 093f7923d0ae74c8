package cpf

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finhaus/cpf-forecast/pkg/constants"
	"github.com/finhaus/cpf-forecast/pkg/money"
)

// CeilingPolicy bounds the wages that attract CPF contributions. The ordinary
// ceiling caps each month's wage base; the annual ceiling caps the cumulative
// CPF-attracting wage (ordinary bases plus bonus bases) within one calendar
// year. Neither ceiling changes the wage actually paid.
type CeilingPolicy struct {
	OrdinaryCeiling decimal.Decimal
	AnnualCeiling   decimal.Decimal
}

// DefaultCeilingPolicy returns the built-in ceilings matching
// DefaultTableVersion.
func DefaultCeilingPolicy() CeilingPolicy {
	return CeilingPolicy{
		OrdinaryCeiling: decimal.RequireFromString(constants.DefaultOrdinaryWageCeiling),
		AnnualCeiling:   decimal.RequireFromString(constants.DefaultAnnualWageCeiling),
	}
}

// Validate rejects non-positive ceilings. The annual ceiling only clamps
// bonuses, so no relationship between the two ceilings is enforced here;
// unusual combinations surface as validation warnings instead.
func (p CeilingPolicy) Validate() error {
	if !p.OrdinaryCeiling.IsPositive() {
		return fmt.Errorf("ordinary wage ceiling must be positive, got %s", p.OrdinaryCeiling)
	}
	if !p.AnnualCeiling.IsPositive() {
		return fmt.Errorf("annual wage ceiling must be positive, got %s", p.AnnualCeiling)
	}
	return nil
}

// OrdinaryBase returns the CPF-attracting portion of a monthly wage. Negative
// wages attract nothing.
func (p CeilingPolicy) OrdinaryBase(monthlyWage decimal.Decimal) decimal.Decimal {
	if !monthlyWage.IsPositive() {
		return decimal.Zero
	}
	return money.Min(monthlyWage, p.OrdinaryCeiling)
}

// BonusBase returns the CPF-attracting portion of a bonus given the wage base
// already consumed this calendar year. Once the year's headroom is exhausted
// the bonus attracts nothing.
func (p CeilingPolicy) BonusBase(bonus, yearToDateBase decimal.Decimal) decimal.Decimal {
	headroom := p.AnnualCeiling.Sub(yearToDateBase)
	if !headroom.IsPositive() {
		return decimal.Zero
	}
	return money.Clamp(bonus, decimal.Zero, headroom)
}

// YearTracker accumulates each member's CPF-attracting wage base within the
// current calendar year and resets on real calendar-year boundaries. It is
// explicit accumulator state owned by the simulation run; nothing here is
// shared across runs.
type YearTracker struct {
	year  int
	bases map[string]decimal.Decimal
}

// NewYearTracker returns a tracker primed for the calendar year of the given
// date.
func NewYearTracker(start time.Time) *YearTracker {
	return &YearTracker{
		year:  start.Year(),
		bases: make(map[string]decimal.Decimal),
	}
}

// Observe rolls the tracker forward to the calendar year of date, zeroing
// every member's tally when the year changes. A simulation starting in
// October resets three months in, at the following January.
func (t *YearTracker) Observe(date time.Time) {
	if date.Year() == t.year {
		return
	}
	t.year = date.Year()
	t.bases = make(map[string]decimal.Decimal)
}

// YearToDate returns the wage base consumed so far this year by the member.
func (t *YearTracker) YearToDate(memberID string) decimal.Decimal {
	return t.bases[memberID]
}

// Add records additional CPF-attracting wage base for the member.
func (t *YearTracker) Add(memberID string, base decimal.Decimal) {
	if base.IsZero() {
		return
	}
	t.bases[memberID] = t.bases[memberID].Add(base)
}
