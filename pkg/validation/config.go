package validation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finhaus/cpf-forecast/pkg/constants"
)

// MemberInfo carries the member fields relevant to pre-run validation.
type MemberInfo struct {
	ID             string
	Name           string
	HasDateOfBirth bool
}

// StreamInfo carries the income stream fields relevant to pre-run validation.
type StreamInfo struct {
	MemberID     string
	Wage         float64
	SubjectToCpf bool
	Active       bool
}

// LoanInfo carries the loan deduction fields relevant to pre-run validation.
type LoanInfo struct {
	Name           string
	MonthlyAmount  float64
	StartMonth     int
	DurationMonths int
}

// ValidateHousehold returns warnings for conditions the engine tolerates but
// the user probably wants to know about. None of these fail a run.
func ValidateHousehold(members []MemberInfo, streams []StreamInfo, loans []LoanInfo, horizon int) []string {
	var warnings []string

	hasActiveStream := make(map[string]bool)
	for _, s := range streams {
		if s.Active && s.SubjectToCpf {
			hasActiveStream[s.MemberID] = true
		}
		if s.Active && s.Wage <= 0 {
			warnings = append(warnings, fmt.Sprintf("Income stream for member '%s' has a non-positive wage and will contribute nothing", s.MemberID))
		}
	}

	for _, m := range members {
		label := m.Name
		if label == "" {
			label = m.ID
		}
		if !m.HasDateOfBirth {
			warnings = append(warnings, fmt.Sprintf("Member '%s' has no date of birth and is excluded from contributions", label))
		}
		if !hasActiveStream[m.ID] {
			warnings = append(warnings, fmt.Sprintf("Member '%s' has no active CPF-attracting income stream", label))
		}
	}

	for _, l := range loans {
		label := l.Name
		if label == "" {
			label = "loan deduction"
		}
		if l.StartMonth > horizon {
			warnings = append(warnings, fmt.Sprintf("'%s' starts at month %d, beyond the %d-month horizon", label, l.StartMonth, horizon))
		}
		if l.DurationMonths > 0 && l.StartMonth+l.DurationMonths-1 > horizon {
			warnings = append(warnings, fmt.Sprintf("'%s' runs past the %d-month horizon and will be cut off", label, horizon))
		}
	}

	return warnings
}

// ValidateCeilings returns warnings for unusual ceiling combinations. An
// annual ceiling below a full year of capped ordinary wages means ordinary
// wages alone exhaust it and every bonus clamps to zero.
func ValidateCeilings(ordinary, annual decimal.Decimal) []string {
	var warnings []string
	yearOfOrdinary := ordinary.Mul(decimal.NewFromInt(constants.MonthsPerYear))
	if annual.LessThan(yearOfOrdinary) {
		warnings = append(warnings, fmt.Sprintf(
			"Annual wage ceiling %s is below twelve months of the ordinary ceiling (%s); bonuses may never attract contributions",
			annual, yearOfOrdinary))
	}
	return warnings
}
