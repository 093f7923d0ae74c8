// Package projection implements the CPF contribution and balance projection
// engine: a deterministic month-by-month simulation that turns a household's
// income records into a per-member and household time series of contribution
// deltas and cumulative balances.
package projection

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Member is a household member as supplied by the data layer. DateOfBirth is
// nil when unknown; such members contribute zero for the whole run.
type Member struct {
	ID          string
	Name        string
	DateOfBirth *time.Time
}

// BonusPayout is one recurring bonus entry on an income stream: every year in
// calendar month Month (1-12) the stream pays Multiplier times its base wage.
type BonusPayout struct {
	Month      int
	Multiplier decimal.Decimal
}

// IncomeStream is one income source owned by a member. Inactive streams are
// dropped entirely; streams not subject to CPF never attract contributions.
type IncomeStream struct {
	MemberID        string
	BaseMonthlyWage decimal.Decimal
	SubjectToCPF    bool
	AccountForBonus bool
	Bonuses         []BonusPayout
	Active          bool
}

// LoanDeduction is a scheduled monthly diversion of ordinary-account funds
// toward a property loan. StartMonth is a 1-based simulation month index;
// DurationMonths of zero keeps the deduction active to the horizon.
// AttributeTo names the member whose OA absorbs the deduction; empty means
// household-level (split pro-rata across member OA balances).
type LoanDeduction struct {
	MonthlyAmount  decimal.Decimal
	StartMonth     int
	DurationMonths int
	AttributeTo    string
}

// Input is the frozen snapshot a projection runs over.
type Input struct {
	Members    []Member
	Streams    []IncomeStream
	Deductions []LoanDeduction
	Horizon    int       // months to project, any positive integer
	Baseline   time.Time // calendar month considered month 0
}

// bonusEvent is a normalized bonus: the gross payout is pre-multiplied from
// its owning stream's base wage.
type bonusEvent struct {
	month int
	gross decimal.Decimal
}

// memberInput is the normalized per-member simulation input.
type memberInput struct {
	id       string
	name     string
	dob      *time.Time
	wage     decimal.Decimal // summed base wage of active CPF-attracting streams
	eligible bool
	bonuses  []bonusEvent
}

// deductionWindow is a normalized loan deduction: active for simulation
// months m with start <= m < end.
type deductionWindow struct {
	amount   decimal.Decimal
	start    int
	end      int
	memberID string // empty = household-level
}

// buildInputs normalizes raw household records into simulation inputs.
// Streams referencing unknown members and deductions attributed to unknown
// members are configuration errors; everything recoverable degrades locally.
func buildInputs(logger *zap.Logger, input Input) ([]memberInput, []deductionWindow, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if input.Horizon <= 0 {
		return nil, nil, fmt.Errorf("projection horizon must be a positive number of months, got %d", input.Horizon)
	}
	if input.Baseline.IsZero() {
		return nil, nil, fmt.Errorf("projection baseline date is required")
	}

	byID := make(map[string]int, len(input.Members))
	members := make([]memberInput, 0, len(input.Members))
	for _, m := range input.Members {
		if m.ID == "" {
			return nil, nil, fmt.Errorf("household member %q has no id", m.Name)
		}
		if _, dup := byID[m.ID]; dup {
			return nil, nil, fmt.Errorf("duplicate household member id %s", m.ID)
		}
		members = append(members, memberInput{id: m.ID, name: m.Name, dob: m.DateOfBirth})
		byID[m.ID] = len(members) - 1
	}

	for _, stream := range input.Streams {
		if !stream.Active {
			logger.Debug("skipping inactive income stream",
				zap.String("op", "projection.buildInputs"),
				zap.String("member", stream.MemberID),
			)
			continue
		}
		idx, ok := byID[stream.MemberID]
		if !ok {
			return nil, nil, fmt.Errorf("income stream references unknown member %s", stream.MemberID)
		}
		member := &members[idx]
		if !stream.SubjectToCPF {
			continue
		}

		wage := stream.BaseMonthlyWage
		if wage.IsNegative() {
			// Negative wages contribute nothing rather than erroring.
			wage = decimal.Zero
		}
		member.wage = member.wage.Add(wage)

		if stream.AccountForBonus {
			for _, bonus := range stream.Bonuses {
				if bonus.Month < 1 || bonus.Month > 12 {
					return nil, nil, fmt.Errorf("member %s has a bonus scheduled for calendar month %d, want 1-12",
						stream.MemberID, bonus.Month)
				}
				member.bonuses = append(member.bonuses, bonusEvent{
					month: bonus.Month,
					gross: wage.Mul(bonus.Multiplier),
				})
			}
		}
	}

	for i := range members {
		m := &members[i]
		m.eligible = m.dob != nil && m.wage.IsPositive()
		if m.dob == nil {
			logger.Debug("member has no date of birth; excluded from contributions",
				zap.String("op", "projection.buildInputs"),
				zap.String("member", m.id),
			)
		}
		sort.SliceStable(m.bonuses, func(a, b int) bool { return m.bonuses[a].month < m.bonuses[b].month })
	}

	windows := make([]deductionWindow, 0, len(input.Deductions))
	for _, d := range input.Deductions {
		if !d.MonthlyAmount.IsPositive() {
			continue
		}
		if d.AttributeTo != "" {
			if _, ok := byID[d.AttributeTo]; !ok {
				return nil, nil, fmt.Errorf("loan deduction attributed to unknown member %s", d.AttributeTo)
			}
		}
		start := d.StartMonth
		if start < 1 {
			start = 1
		}
		end := input.Horizon + 1
		if d.DurationMonths > 0 && start+d.DurationMonths < end {
			end = start + d.DurationMonths
		}
		windows = append(windows, deductionWindow{
			amount:   d.MonthlyAmount,
			start:    start,
			end:      end,
			memberID: d.AttributeTo,
		})
	}

	return members, windows, nil
}
