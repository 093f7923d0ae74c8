package projection

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finhaus/cpf-forecast/internal/cpf"
	"github.com/finhaus/cpf-forecast/pkg/constants"
	"github.com/finhaus/cpf-forecast/pkg/datetime"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dob(s string) *time.Time {
	t := datetime.MustParseTime(constants.DateOfBirthLayout, s)
	return &t
}

func newTestSimulator(t *testing.T, policy cpf.CeilingPolicy) *Simulator {
	t.Helper()
	sim, err := NewSimulator(zap.NewNop(), cpf.DefaultContributionTable(), cpf.DefaultAllocationTable(), policy)
	if err != nil {
		t.Fatalf("NewSimulator() error = %v", err)
	}
	return sim
}

// singleEarner is the worked reference case: age 40 through the whole run,
// $6,000 monthly wage, below both ceilings.
func singleEarner(bonuses []BonusPayout) Input {
	return Input{
		Members: []Member{
			{ID: "alice", Name: "Alice", DateOfBirth: dob("1985-01-01")},
		},
		Streams: []IncomeStream{
			{
				MemberID:        "alice",
				BaseMonthlyWage: dec("6000"),
				SubjectToCPF:    true,
				AccountForBonus: bonuses != nil,
				Bonuses:         bonuses,
				Active:          true,
			},
		},
		Horizon:  12,
		Baseline: datetime.MustParseTime(constants.DateTimeLayout, "2025-01"),
	}
}

func TestProjectReferenceMonth(t *testing.T) {
	sim := newTestSimulator(t, cpf.DefaultCeilingPolicy())

	result, err := sim.Project(singleEarner(nil))
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if len(result.Points) != 13 {
		t.Fatalf("Project() returned %d points, expected 13 (baseline + 12 months)", len(result.Points))
	}

	// Age 40, contribution 37% of 6000, allocation band 0.5677/0.1891/0.2432,
	// OA and SA rounded, MA the exact remainder.
	month := result.Points[1].Members["alice"].Monthly
	wantMonthly := map[string]struct {
		got      decimal.Decimal
		expected string
	}{
		"total": {month.Total, "2220.00"},
		"oa":    {month.OA, "1260.29"},
		"sa":    {month.SA, "419.80"},
		"ma":    {month.MA, "539.91"},
	}
	for field, w := range wantMonthly {
		if !w.got.Equal(dec(w.expected)) {
			t.Errorf("month 1 %s = %s, expected %s", field, w.got, w.expected)
		}
	}

	// Employee 20% of wage, employer the remainder of the 37% total.
	// Verified through a fresh member-month run since shares are not part of
	// the data-point contract.
	members, _, err := buildInputs(zap.NewNop(), singleEarner(nil))
	if err != nil {
		t.Fatalf("buildInputs() error = %v", err)
	}
	tracker := cpf.NewYearTracker(datetime.MustParseTime(constants.DateTimeLayout, "2025-01"))
	delta := sim.memberMonth(members[0], datetime.MustParseTime(constants.DateTimeLayout, "2025-02"), tracker)
	if !delta.Employee.Equal(dec("1200.00")) {
		t.Errorf("employee share = %s, expected 1200.00", delta.Employee)
	}
	if !delta.Employer.Equal(dec("1020.00")) {
		t.Errorf("employer share = %s, expected 1020.00", delta.Employer)
	}
	if !delta.Employee.Add(delta.Employer).Equal(delta.Total) {
		t.Errorf("employee + employer = %s, expected exactly total %s", delta.Employee.Add(delta.Employer), delta.Total)
	}
}

func TestProjectBonusWithinHeadroom(t *testing.T) {
	// OW base 6000 x 12 = 72000 by December; AW ceiling 102000 leaves 30000
	// headroom, so the 12000 bonus is not clamped.
	sim := newTestSimulator(t, cpf.CeilingPolicy{
		OrdinaryCeiling: dec("6000"),
		AnnualCeiling:   dec("102000"),
	})

	result, err := sim.Project(singleEarner([]BonusPayout{{Month: 12, Multiplier: dec("2")}}))
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	december := result.Points[12].Members["alice"]
	if !december.BonusScheduled {
		t.Errorf("December BonusScheduled = false, expected true")
	}
	if !december.BonusBase.Equal(dec("12000")) {
		t.Errorf("December bonus base = %s, expected 12000", december.BonusBase)
	}
	// 2220.00 regular + 4440.00 bonus contribution.
	if !december.Monthly.Total.Equal(dec("6660.00")) {
		t.Errorf("December total delta = %s, expected 6660.00", december.Monthly.Total)
	}

	november := result.Points[11].Members["alice"]
	if november.BonusScheduled {
		t.Errorf("November BonusScheduled = true, expected false")
	}
}

func TestProjectBonusClampedByAnnualCeiling(t *testing.T) {
	// OW base 8000 x 12 = 96000 by December; 12000 bonus clamps to the 6000
	// of remaining headroom and contributes 6000 x 0.37.
	sim := newTestSimulator(t, cpf.CeilingPolicy{
		OrdinaryCeiling: dec("8000"),
		AnnualCeiling:   dec("102000"),
	})

	input := singleEarner([]BonusPayout{{Month: 12, Multiplier: dec("1.5")}})
	input.Streams[0].BaseMonthlyWage = dec("8000")

	result, err := sim.Project(input)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	december := result.Points[12].Members["alice"]
	if !december.BonusScheduled {
		t.Errorf("December BonusScheduled = false, expected true")
	}
	if !december.BonusBase.Equal(dec("6000")) {
		t.Errorf("December bonus base = %s, expected 6000 (clamped)", december.BonusBase)
	}

	regular := dec("2960.00") // 8000 x 0.37
	bonus := dec("2220.00")   // 6000 x 0.37
	if !december.Monthly.Total.Equal(regular.Add(bonus)) {
		t.Errorf("December total delta = %s, expected %s", december.Monthly.Total, regular.Add(bonus))
	}
}

func TestProjectBonusCeilingExhausted(t *testing.T) {
	// A tiny annual ceiling is exhausted by ordinary wages alone; the bonus
	// stays scheduled but its base clamps to zero, which keeps "clamped" and
	// "not due" distinguishable in output.
	sim := newTestSimulator(t, cpf.CeilingPolicy{
		OrdinaryCeiling: dec("6000"),
		AnnualCeiling:   dec("30000"),
	})

	result, err := sim.Project(singleEarner([]BonusPayout{{Month: 12, Multiplier: dec("2")}}))
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	december := result.Points[12].Members["alice"]
	if !december.BonusScheduled {
		t.Errorf("December BonusScheduled = false, expected true even when clamped to zero")
	}
	if !december.BonusBase.IsZero() {
		t.Errorf("December bonus base = %s, expected 0", december.BonusBase)
	}
	if !december.Monthly.Total.Equal(dec("2220.00")) {
		t.Errorf("December total delta = %s, expected regular 2220.00 only", december.Monthly.Total)
	}
}

func TestProjectAnnualCeilingResetsMidSimulation(t *testing.T) {
	// Baseline October: the year tracker resets the following January, so a
	// December bonus clamps against only three months of ordinary wages while
	// a bonus the next December clamps against a full year.
	sim := newTestSimulator(t, cpf.CeilingPolicy{
		OrdinaryCeiling: dec("6000"),
		AnnualCeiling:   dec("20000"),
	})

	input := singleEarner([]BonusPayout{{Month: 12, Multiplier: dec("2")}})
	input.Baseline = datetime.MustParseTime(constants.DateTimeLayout, "2025-10")
	input.Horizon = 15

	result, err := sim.Project(input)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	// December 2025 is month 2: ytd = 12000, headroom = 8000.
	firstDecember := result.Points[2].Members["alice"]
	if !firstDecember.BonusBase.Equal(dec("8000")) {
		t.Errorf("first December bonus base = %s, expected 8000", firstDecember.BonusBase)
	}

	// December 2026 is month 14: ytd = 11 x 6000 + December's 6000 = 72000,
	// past the 20000 ceiling, so the bonus clamps to zero.
	secondDecember := result.Points[14].Members["alice"]
	if !secondDecember.BonusBase.IsZero() {
		t.Errorf("second December bonus base = %s, expected 0", secondDecember.BonusBase)
	}
}

func TestProjectMultipleBonusesClampCumulatively(t *testing.T) {
	// Two bonuses in one year consume annual headroom in order; the ceiling is
	// tight enough that the June bonus leaves nothing for December.
	sim := newTestSimulator(t, cpf.CeilingPolicy{
		OrdinaryCeiling: dec("6000"),
		AnnualCeiling:   dec("50000"),
	})

	input := singleEarner([]BonusPayout{
		{Month: 6, Multiplier: dec("2")},
		{Month: 12, Multiplier: dec("2")},
	})

	result, err := sim.Project(input)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	// June (month 6): ytd = 36000, headroom 14000 -> full 12000 base.
	june := result.Points[6].Members["alice"]
	if !june.BonusBase.Equal(dec("12000")) {
		t.Errorf("June bonus base = %s, expected 12000", june.BonusBase)
	}

	// December: ytd = 72000 OW + 12000 June bonus, far past the 50000
	// ceiling, so the December bonus sees zero headroom.
	december := result.Points[12].Members["alice"]
	if !december.BonusBase.IsZero() {
		t.Errorf("December bonus base = %s, expected 0 after June consumed the headroom", december.BonusBase)
	}
}

func TestProjectMissingDateOfBirth(t *testing.T) {
	sim := newTestSimulator(t, cpf.DefaultCeilingPolicy())

	input := Input{
		Members: []Member{
			{ID: "alice", Name: "Alice", DateOfBirth: dob("1985-01-01")},
			{ID: "bob", Name: "Bob", DateOfBirth: nil},
		},
		Streams: []IncomeStream{
			{MemberID: "alice", BaseMonthlyWage: dec("6000"), SubjectToCPF: true, Active: true},
			{MemberID: "bob", BaseMonthlyWage: dec("5000"), SubjectToCPF: true, Active: true},
		},
		Horizon:  6,
		Baseline: datetime.MustParseTime(constants.DateTimeLayout, "2025-01"),
	}

	result, err := sim.Project(input)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	for _, point := range result.Points {
		bob := point.Members["bob"]
		if !bob.Monthly.Total.IsZero() || !bob.Cumulative.Total.IsZero() {
			t.Errorf("month %d: member without date of birth contributed %s", point.Month, bob.Monthly.Total)
		}
		alice := point.Members["alice"]
		if !point.Household.Monthly.Total.Equal(alice.Monthly.Total) {
			t.Errorf("month %d: household total %s, expected alice-only %s",
				point.Month, point.Household.Monthly.Total, alice.Monthly.Total)
		}
	}
}

func TestProjectNotSubjectToCPF(t *testing.T) {
	sim := newTestSimulator(t, cpf.DefaultCeilingPolicy())

	input := singleEarner(nil)
	input.Streams[0].SubjectToCPF = false

	result, err := sim.Project(input)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	for _, point := range result.Points {
		if !point.Household.Monthly.Total.IsZero() {
			t.Errorf("month %d: stream not subject to CPF contributed %s", point.Month, point.Household.Monthly.Total)
		}
	}
}

func TestProjectOrdinaryWageCeilingApplied(t *testing.T) {
	sim := newTestSimulator(t, cpf.CeilingPolicy{
		OrdinaryCeiling: dec("6000"),
		AnnualCeiling:   dec("102000"),
	})

	input := singleEarner(nil)
	input.Streams[0].BaseMonthlyWage = dec("10000")

	result, err := sim.Project(input)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	// Capped at 6000 x 0.37 even though the wage is 10000.
	month := result.Points[1].Members["alice"].Monthly
	if !month.Total.Equal(dec("2220.00")) {
		t.Errorf("capped month total = %s, expected 2220.00", month.Total)
	}
}

func TestProjectAgeBandTransition(t *testing.T) {
	// Member turns 56 mid-run: the contribution rate steps down from 37% to
	// 32.5% starting with the birthday month.
	sim := newTestSimulator(t, cpf.DefaultCeilingPolicy())

	input := singleEarner(nil)
	input.Members[0].DateOfBirth = dob("1969-07-15")
	input.Baseline = datetime.MustParseTime(constants.DateTimeLayout, "2025-05")

	result, err := sim.Project(input)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	// June 2025 (month 1): age 55, still the 37% band.
	june := result.Points[1].Members["alice"].Monthly
	if !june.Total.Equal(dec("2220.00")) {
		t.Errorf("age-55 month total = %s, expected 2220.00", june.Total)
	}

	// July 2025 (month 2): age 56, the 32.5% band -> 6000 x 0.325.
	july := result.Points[2].Members["alice"].Monthly
	if !july.Total.Equal(dec("1950.00")) {
		t.Errorf("age-56 month total = %s, expected 1950.00", july.Total)
	}
}

func TestNewSimulatorRejectsBadTables(t *testing.T) {
	badAlloc := cpf.AllocationTable{
		Version: "broken",
		Bands: []cpf.AllocationBand{
			{MinAge: 0, MaxAge: cpf.OpenEnded, OA: dec("0.5"), SA: dec("0.3"), MA: dec("0.3")},
		},
	}
	_, err := NewSimulator(zap.NewNop(), cpf.DefaultContributionTable(), badAlloc, cpf.DefaultCeilingPolicy())
	if err == nil {
		t.Errorf("NewSimulator() expected error for allocation ratios summing past 1")
	}
}
