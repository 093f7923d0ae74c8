// Package cpf implements the regulatory policy surface of the projection
// engine: age-banded contribution and allocation rate tables and the ordinary
// and annual wage ceilings. Everything here is pure; tables are validated once
// at construction and never mutated afterwards.
package cpf

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OpenEnded marks the MaxAge of the final band in a table, which covers all
// ages from its MinAge upward.
const OpenEnded = -1

// RateBand holds the employee and employer contribution rates for an
// inclusive age range. Rates are fractions of wage, not percentages.
type RateBand struct {
	MinAge   int
	MaxAge   int // inclusive; OpenEnded for the last band
	Employee decimal.Decimal
	Employer decimal.Decimal
}

// Total returns the combined contribution rate for the band.
func (b RateBand) Total() decimal.Decimal {
	return b.Employee.Add(b.Employer)
}

// Contains reports whether age falls inside the band.
func (b RateBand) Contains(age int) bool {
	if age < b.MinAge {
		return false
	}
	return b.MaxAge == OpenEnded || age <= b.MaxAge
}

// AllocationBand holds the OA/SA/MA split of a contribution for an inclusive
// age range. The three ratios must sum to exactly 1.
type AllocationBand struct {
	MinAge int
	MaxAge int // inclusive; OpenEnded for the last band
	OA     decimal.Decimal
	SA     decimal.Decimal
	MA     decimal.Decimal
}

// Contains reports whether age falls inside the band.
func (b AllocationBand) Contains(age int) bool {
	if age < b.MinAge {
		return false
	}
	return b.MaxAge == OpenEnded || age <= b.MaxAge
}

// ContributionTable is an ordered list of contiguous rate bands covering all
// ages from zero upward.
type ContributionTable struct {
	Version string
	Bands   []RateBand
}

// AllocationTable is an ordered list of contiguous allocation bands covering
// all ages from zero upward.
type AllocationTable struct {
	Version string
	Bands   []AllocationBand
}

// Validate checks the structural invariants of the contribution table:
// at least one band, contiguous and non-overlapping coverage of [0, inf),
// non-negative rates. Violations are configuration errors and fatal to the run.
func (t ContributionTable) Validate() error {
	if len(t.Bands) == 0 {
		return fmt.Errorf("contribution table %s: no bands defined", t.Version)
	}
	for i, band := range t.Bands {
		prev := 0
		if i > 0 {
			prev = t.Bands[i-1].MaxAge
		}
		if err := checkBandBounds(i, band.MinAge, band.MaxAge, i == len(t.Bands)-1, prev); err != nil {
			return fmt.Errorf("contribution table %s: %w", t.Version, err)
		}
		if band.Employee.IsNegative() || band.Employer.IsNegative() {
			return fmt.Errorf("contribution table %s: band %d has a negative rate", t.Version, i)
		}
	}
	return nil
}

// Validate checks the structural invariants of the allocation table: the same
// coverage rules as the contribution table, plus OA+SA+MA == 1 exactly in
// every band.
func (t AllocationTable) Validate() error {
	if len(t.Bands) == 0 {
		return fmt.Errorf("allocation table %s: no bands defined", t.Version)
	}
	one := decimal.NewFromInt(1)
	for i, band := range t.Bands {
		prev := 0
		if i > 0 {
			prev = t.Bands[i-1].MaxAge
		}
		if err := checkBandBounds(i, band.MinAge, band.MaxAge, i == len(t.Bands)-1, prev); err != nil {
			return fmt.Errorf("allocation table %s: %w", t.Version, err)
		}
		if band.OA.IsNegative() || band.SA.IsNegative() || band.MA.IsNegative() {
			return fmt.Errorf("allocation table %s: band %d has a negative ratio", t.Version, i)
		}
		if sum := band.OA.Add(band.SA).Add(band.MA); !sum.Equal(one) {
			return fmt.Errorf("allocation table %s: band %d ratios sum to %s, want exactly 1", t.Version, i, sum)
		}
	}
	return nil
}

// ContributionRate returns the band covering the given age. Ages above the
// final band clamp to it; ages below the first band use the first band.
func (t ContributionTable) ContributionRate(age int) RateBand {
	for _, band := range t.Bands {
		if band.Contains(age) {
			return band
		}
	}
	if age < t.Bands[0].MinAge {
		return t.Bands[0]
	}
	return t.Bands[len(t.Bands)-1]
}

// AllocationRatio returns the band covering the given age, with the same
// clamping behavior as ContributionRate.
func (t AllocationTable) AllocationRatio(age int) AllocationBand {
	for _, band := range t.Bands {
		if band.Contains(age) {
			return band
		}
	}
	if age < t.Bands[0].MinAge {
		return t.Bands[0]
	}
	return t.Bands[len(t.Bands)-1]
}

func checkBandBounds(i, minAge, maxAge int, last bool, previousMax int) error {
	if i == 0 && minAge != 0 {
		return fmt.Errorf("band 0 starts at age %d, coverage must begin at 0", minAge)
	}
	if i > 0 && minAge != previousMax+1 {
		return fmt.Errorf("band %d starts at age %d, want %d (contiguous with previous band)", i, minAge, previousMax+1)
	}
	if last {
		if maxAge != OpenEnded {
			return fmt.Errorf("band %d is the last band and must be open-ended", i)
		}
		return nil
	}
	if maxAge == OpenEnded {
		return fmt.Errorf("band %d is open-ended but is not the last band", i)
	}
	if maxAge < minAge {
		return fmt.Errorf("band %d has maxAge %d below minAge %d", i, maxAge, minAge)
	}
	return nil
}
