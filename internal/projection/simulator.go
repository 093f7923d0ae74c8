package projection

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finhaus/cpf-forecast/internal/cpf"
	"github.com/finhaus/cpf-forecast/pkg/constants"
	"github.com/finhaus/cpf-forecast/pkg/datetime"
	"github.com/finhaus/cpf-forecast/pkg/money"
)

// Simulator computes one member-month of CPF contributions at a time. It is
// pure given its tables and policy; all per-run accumulator state lives in
// the YearTracker threaded through by the caller.
type Simulator struct {
	logger  *zap.Logger
	contrib cpf.ContributionTable
	alloc   cpf.AllocationTable
	policy  cpf.CeilingPolicy
}

// NewSimulator validates the tables and ceiling policy once and returns a
// simulator. Table violations are configuration errors and fail construction.
func NewSimulator(logger *zap.Logger, contrib cpf.ContributionTable, alloc cpf.AllocationTable, policy cpf.CeilingPolicy) (*Simulator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := contrib.Validate(); err != nil {
		return nil, fmt.Errorf("invalid contribution table: %w", err)
	}
	if err := alloc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid allocation table: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ceiling policy: %w", err)
	}
	return &Simulator{logger: logger, contrib: contrib, alloc: alloc, policy: policy}, nil
}

// MonthDelta is one member's contribution for one simulated month. OA, SA and
// MA reconcile exactly to Total; the employee and employer shares reconcile
// exactly to Total as well. BonusScheduled distinguishes a bonus clamped to
// zero by the annual ceiling from a month with no bonus due.
type MonthDelta struct {
	OA    decimal.Decimal
	SA    decimal.Decimal
	MA    decimal.Decimal
	Total decimal.Decimal

	Employee decimal.Decimal
	Employer decimal.Decimal

	BonusScheduled bool
	BonusBase      decimal.Decimal
}

func zeroDelta() MonthDelta {
	return MonthDelta{
		OA: decimal.Zero, SA: decimal.Zero, MA: decimal.Zero, Total: decimal.Zero,
		Employee: decimal.Zero, Employer: decimal.Zero, BonusBase: decimal.Zero,
	}
}

// memberMonth runs the monthly contribution computation for one member at the
// given simulated date, updating the year tracker with the wage bases it
// consumes. Ineligible members (no date of birth, no CPF-attracting wage)
// produce a zero delta.
func (s *Simulator) memberMonth(member memberInput, date time.Time, tracker *cpf.YearTracker) MonthDelta {
	delta := zeroDelta()
	if !member.eligible {
		return delta
	}

	age := datetime.AgeAt(*member.dob, date)
	rates := s.contrib.ContributionRate(age)
	ratios := s.alloc.AllocationRatio(age)

	owBase := s.policy.OrdinaryBase(member.wage)
	s.addContribution(&delta, owBase, rates, ratios)
	tracker.Add(member.id, owBase)

	// Bonus payouts use the same age-resolved bands as the regular wage this
	// month. Each payout clamps against the tracker after the previous one is
	// recorded, so multiple bonuses in one year consume headroom cumulatively.
	calendarMonth := int(date.Month())
	for _, bonus := range member.bonuses {
		if bonus.month != calendarMonth {
			continue
		}
		delta.BonusScheduled = true
		bonusBase := s.policy.BonusBase(bonus.gross, tracker.YearToDate(member.id))
		delta.BonusBase = delta.BonusBase.Add(bonusBase)
		if bonusBase.IsZero() {
			s.logger.Debug("bonus fully clamped by annual wage ceiling",
				zap.String("op", "projection.memberMonth"),
				zap.String("member", member.id),
				zap.String("date", date.Format(constants.DateTimeLayout)),
			)
			continue
		}
		s.addContribution(&delta, bonusBase, rates, ratios)
		tracker.Add(member.id, bonusBase)
	}

	return delta
}

// addContribution folds the contribution on one wage base into the delta.
// OA and SA are rounded by ratio and MA takes the exact remainder, so the
// three sub-accounts always sum to the rounded total; the employee share is
// rounded and the employer share takes the remainder for the same reason.
func (s *Simulator) addContribution(delta *MonthDelta, base decimal.Decimal, rates cpf.RateBand, ratios cpf.AllocationBand) {
	if !base.IsPositive() {
		return
	}

	total := money.RoundCents(base.Mul(rates.Total()))
	employee := money.RoundCents(base.Mul(rates.Employee))
	employer := total.Sub(employee)

	oa := money.RoundCents(total.Mul(ratios.OA))
	sa := money.RoundCents(total.Mul(ratios.SA))
	ma := total.Sub(oa).Sub(sa)

	delta.Total = delta.Total.Add(total)
	delta.Employee = delta.Employee.Add(employee)
	delta.Employer = delta.Employer.Add(employer)
	delta.OA = delta.OA.Add(oa)
	delta.SA = delta.SA.Add(sa)
	delta.MA = delta.MA.Add(ma)
}
