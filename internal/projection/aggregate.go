package projection

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finhaus/cpf-forecast/internal/cpf"
	"github.com/finhaus/cpf-forecast/pkg/constants"
	"github.com/finhaus/cpf-forecast/pkg/datetime"
)

// Accounts holds one OA/SA/MA/total figure set. The three sub-accounts always
// sum exactly to Total.
type Accounts struct {
	OA    decimal.Decimal `json:"oa"`
	SA    decimal.Decimal `json:"sa"`
	MA    decimal.Decimal `json:"ma"`
	Total decimal.Decimal `json:"total"`
}

func zeroAccounts() Accounts {
	return Accounts{OA: decimal.Zero, SA: decimal.Zero, MA: decimal.Zero, Total: decimal.Zero}
}

func (a Accounts) add(b Accounts) Accounts {
	return Accounts{
		OA:    a.OA.Add(b.OA),
		SA:    a.SA.Add(b.SA),
		MA:    a.MA.Add(b.MA),
		Total: a.Total.Add(b.Total),
	}
}

// Snapshot is one member's (or the household's) figures for one month.
// Monthly carries what was earned that month and is never reduced by loan
// deductions; Cumulative is the running balance after deductions.
type Snapshot struct {
	Cumulative     Accounts        `json:"cumulative"`
	Monthly        Accounts        `json:"monthly"`
	LoanDeduction  decimal.Decimal `json:"loanDeduction"`
	BonusScheduled bool            `json:"bonusScheduled"`
	BonusBase      decimal.Decimal `json:"bonusCpfBase"`
}

func zeroSnapshot() Snapshot {
	return Snapshot{
		Cumulative:    zeroAccounts(),
		Monthly:       zeroAccounts(),
		LoanDeduction: decimal.Zero,
		BonusBase:     decimal.Zero,
	}
}

// ProjectionDataPoint is one month of the output series. Month 0 is the
// all-zero baseline. Points are immutable once produced.
type ProjectionDataPoint struct {
	Month     int                 `json:"month"`
	Date      string              `json:"date"`
	Members   map[string]Snapshot `json:"members"`
	Household Snapshot            `json:"household"`
}

// Projection is the engine's sole output artifact: the ordered data-point
// sequence plus identifying run metadata.
type Projection struct {
	BaselineDate string                `json:"baselineDate"`
	Horizon      int                   `json:"horizon"`
	TableVersion string                `json:"tableVersion"`
	MemberNames  map[string]string     `json:"memberNames"`
	Points       []ProjectionDataPoint `json:"points"`
}

// Project runs the full simulation over the frozen input and assembles the
// output series. Identical inputs always produce identical output; there is
// no clock, randomness, or I/O in the loop.
func (s *Simulator) Project(input Input) (*Projection, error) {
	members, windows, err := buildInputs(s.logger, input)
	if err != nil {
		return nil, err
	}

	baseline := datetime.OffsetMonth(input.Baseline, 0)
	tracker := cpf.NewYearTracker(baseline)

	memberIDs := make([]string, len(members))
	names := make(map[string]string, len(members))
	cumulative := make(map[string]Accounts, len(members))
	for i, m := range members {
		memberIDs[i] = m.id
		names[m.id] = m.name
		cumulative[m.id] = zeroAccounts()
	}

	result := &Projection{
		BaselineDate: baseline.Format(constants.DateTimeLayout),
		Horizon:      input.Horizon,
		TableVersion: s.contrib.Version,
		MemberNames:  names,
		Points:       make([]ProjectionDataPoint, 0, input.Horizon+1),
	}

	// Month 0 is the baseline with all values zero.
	basePoint := ProjectionDataPoint{
		Month:     0,
		Date:      result.BaselineDate,
		Members:   make(map[string]Snapshot, len(members)),
		Household: zeroSnapshot(),
	}
	for _, id := range memberIDs {
		basePoint.Members[id] = zeroSnapshot()
	}
	result.Points = append(result.Points, basePoint)

	for m := 1; m <= input.Horizon; m++ {
		date := datetime.OffsetMonth(baseline, m)
		tracker.Observe(date)

		deltas := make(map[string]MonthDelta, len(members))
		prospectiveOA := make(map[string]decimal.Decimal, len(members))
		for _, member := range members {
			delta := s.memberMonth(member, date, tracker)
			deltas[member.id] = delta
			prospectiveOA[member.id] = cumulative[member.id].OA.Add(delta.OA)
		}

		deductions := applyDeductions(s.logger, windows, m, date, memberIDs, prospectiveOA)

		point := ProjectionDataPoint{
			Month:     m,
			Date:      date.Format(constants.DateTimeLayout),
			Members:   make(map[string]Snapshot, len(members)),
			Household: zeroSnapshot(),
		}

		for _, id := range memberIDs {
			delta := deltas[id]
			prev := cumulative[id]
			next := Accounts{
				OA: prospectiveOA[id], // delta added, deduction subtracted, clamped >= 0
				SA: prev.SA.Add(delta.SA),
				MA: prev.MA.Add(delta.MA),
			}
			next.Total = next.OA.Add(next.SA).Add(next.MA)
			cumulative[id] = next

			snap := Snapshot{
				Cumulative: next,
				Monthly: Accounts{
					OA:    delta.OA,
					SA:    delta.SA,
					MA:    delta.MA,
					Total: delta.Total,
				},
				LoanDeduction:  deductions[id],
				BonusScheduled: delta.BonusScheduled,
				BonusBase:      delta.BonusBase,
			}
			point.Members[id] = snap

			point.Household.Cumulative = point.Household.Cumulative.add(snap.Cumulative)
			point.Household.Monthly = point.Household.Monthly.add(snap.Monthly)
			point.Household.LoanDeduction = point.Household.LoanDeduction.Add(snap.LoanDeduction)
			point.Household.BonusScheduled = point.Household.BonusScheduled || snap.BonusScheduled
			point.Household.BonusBase = point.Household.BonusBase.Add(snap.BonusBase)
		}

		result.Points = append(result.Points, point)
	}

	s.logger.Debug("projection complete",
		zap.String("op", "projection.Project"),
		zap.String("baseline", result.BaselineDate),
		zap.Int("months", input.Horizon),
		zap.Int("members", len(members)),
	)

	return result, nil
}
