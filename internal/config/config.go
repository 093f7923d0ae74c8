// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/finhaus/cpf-forecast/internal/cpf"
	"github.com/finhaus/cpf-forecast/internal/projection"
	"github.com/finhaus/cpf-forecast/pkg/constants"
	"github.com/finhaus/cpf-forecast/pkg/money"
	"github.com/finhaus/cpf-forecast/pkg/validation"
)

// DateTimeLayout is the month format expected in config files and is also the
// output date format.
const DateTimeLayout = constants.DateTimeLayout

// Configuration holds all configuration for cpf-forecast.
type Configuration struct {
	Household  Household
	Projection Projection
	Policy     Policy        `yaml:"policy,omitempty"`
	Logging    LoggingConfig `yaml:"logging,omitempty"`
	Output     OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// Household holds the member, income, and loan records a projection runs over.
type Household struct {
	Members []Member
	Incomes []Income
	Loans   []Loan
}

// Member is one household member. DateOfBirth uses the 2006-01-02 layout and
// may be empty when unknown; such members are excluded from contributions.
type Member struct {
	ID          string
	Name        string
	DateOfBirth string
}

// Income is one income stream owned by a member.
type Income struct {
	MemberID        string
	BaseMonthlyWage float64
	SubjectToCpf    bool
	AccountForBonus bool
	Bonuses         []Bonus
	Active          bool
}

// Bonus is a recurring yearly bonus: in calendar month Month (1-12) the
// stream pays Multiplier times its base wage.
type Bonus struct {
	Month      int
	Multiplier float64
}

// Loan is a CPF-linked property loan serviced from the ordinary account.
// AttributeTo optionally names the member whose OA absorbs the deduction;
// empty means household-level.
type Loan struct {
	Name           string
	MonthlyAmount  float64
	StartMonth     int
	DurationMonths int
	AttributeTo    string
}

// Projection holds the simulation window parameters.
type Projection struct {
	HorizonMonths int
	BaselineDate  string // 2006-01 layout; empty uses the current month
}

// Policy holds optional overrides of the built-in regulatory parameters.
type Policy struct {
	OrdinaryWageCeiling float64 `yaml:"ordinaryWageCeiling,omitempty"`
	AnnualWageCeiling   float64 `yaml:"annualWageCeiling,omitempty"`
	TableVersion        string  `yaml:"tableVersion,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := viper.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

// ProjectionInput converts the configuration into the engine's input
// contract. The baseline defaults to the current calendar month; pass a fixed
// time for reproducible runs and tests.
func (c *Configuration) ProjectionInput() (projection.Input, error) {
	return c.ProjectionInputWithFixedTime(time.Now())
}

// ProjectionInputWithFixedTime converts the configuration using a fixed time
// as the default baseline.
func (c *Configuration) ProjectionInputWithFixedTime(fixedTime time.Time) (projection.Input, error) {
	var input projection.Input

	baseline := c.Projection.BaselineDate
	if baseline == "" {
		baseline = fixedTime.Format(DateTimeLayout)
	}
	baselineT, err := time.Parse(DateTimeLayout, baseline)
	if err != nil {
		return input, fmt.Errorf("invalid baseline date %q: %w", baseline, err)
	}
	input.Baseline = baselineT
	input.Horizon = c.Projection.HorizonMonths

	for _, m := range c.Household.Members {
		member := projection.Member{ID: m.ID, Name: m.Name}
		if m.DateOfBirth != "" {
			dobT, err := time.Parse(constants.DateOfBirthLayout, m.DateOfBirth)
			if err != nil {
				return input, fmt.Errorf("member %s has invalid date of birth %q: %w", m.ID, m.DateOfBirth, err)
			}
			member.DateOfBirth = &dobT
		}
		input.Members = append(input.Members, member)
	}

	for _, inc := range c.Household.Incomes {
		stream := projection.IncomeStream{
			MemberID:        inc.MemberID,
			BaseMonthlyWage: money.RoundCents(decimal.NewFromFloat(inc.BaseMonthlyWage)),
			SubjectToCPF:    inc.SubjectToCpf,
			AccountForBonus: inc.AccountForBonus,
			Active:          inc.Active,
		}
		for _, b := range inc.Bonuses {
			stream.Bonuses = append(stream.Bonuses, projection.BonusPayout{
				Month:      b.Month,
				Multiplier: decimal.NewFromFloat(b.Multiplier),
			})
		}
		input.Streams = append(input.Streams, stream)
	}

	for _, loan := range c.Household.Loans {
		input.Deductions = append(input.Deductions, projection.LoanDeduction{
			MonthlyAmount:  money.RoundCents(decimal.NewFromFloat(loan.MonthlyAmount)),
			StartMonth:     loan.StartMonth,
			DurationMonths: loan.DurationMonths,
			AttributeTo:    loan.AttributeTo,
		})
	}

	return input, nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var members []validation.MemberInfo
	for _, m := range c.Household.Members {
		members = append(members, validation.MemberInfo{
			ID:             m.ID,
			Name:           m.Name,
			HasDateOfBirth: m.DateOfBirth != "",
		})
	}

	var streams []validation.StreamInfo
	for _, inc := range c.Household.Incomes {
		streams = append(streams, validation.StreamInfo{
			MemberID:     inc.MemberID,
			Wage:         inc.BaseMonthlyWage,
			SubjectToCpf: inc.SubjectToCpf,
			Active:       inc.Active,
		})
	}

	var loans []validation.LoanInfo
	for _, loan := range c.Household.Loans {
		loans = append(loans, validation.LoanInfo{
			Name:           loan.Name,
			MonthlyAmount:  loan.MonthlyAmount,
			StartMonth:     loan.StartMonth,
			DurationMonths: loan.DurationMonths,
		})
	}

	warnings := validation.ValidateHousehold(members, streams, loans, c.Projection.HorizonMonths)

	policy := c.CeilingPolicy()
	warnings = append(warnings, validation.ValidateCeilings(policy.OrdinaryCeiling, policy.AnnualCeiling)...)

	return warnings
}

// CeilingPolicy returns the wage ceiling policy for the run: built-in
// defaults with any configured overrides applied.
func (c *Configuration) CeilingPolicy() cpf.CeilingPolicy {
	policy := cpf.DefaultCeilingPolicy()
	if c.Policy.OrdinaryWageCeiling > 0 {
		policy.OrdinaryCeiling = money.RoundCents(decimal.NewFromFloat(c.Policy.OrdinaryWageCeiling))
	}
	if c.Policy.AnnualWageCeiling > 0 {
		policy.AnnualCeiling = money.RoundCents(decimal.NewFromFloat(c.Policy.AnnualWageCeiling))
	}
	return policy
}

// Tables returns the contribution and allocation tables for the configured
// version. Only the built-in version ships today; an unknown version is a
// configuration error rather than a silent fallback.
func (c *Configuration) Tables() (cpf.ContributionTable, cpf.AllocationTable, error) {
	version := c.Policy.TableVersion
	if version == "" || version == cpf.DefaultTableVersion {
		return cpf.DefaultContributionTable(), cpf.DefaultAllocationTable(), nil
	}
	return cpf.ContributionTable{}, cpf.AllocationTable{}, fmt.Errorf("unknown rate table version %q", version)
}
