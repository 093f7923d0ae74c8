package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finhaus/cpf-forecast/internal/cpf"
)

func loadTestConfiguration(t *testing.T) *Configuration {
	t.Helper()
	conf, err := LoadConfiguration("testdata/config.yaml")
	require.NoError(t, err, "LoadConfiguration()")
	return conf
}

func TestLoadConfiguration(t *testing.T) {
	conf := loadTestConfiguration(t)

	require.Len(t, conf.Household.Members, 3)
	assert.Equal(t, "alice", conf.Household.Members[0].ID)
	assert.Equal(t, "1985-01-01", conf.Household.Members[0].DateOfBirth)
	assert.Empty(t, conf.Household.Members[2].DateOfBirth, "carol has no date of birth")

	require.Len(t, conf.Household.Incomes, 3)
	assert.Equal(t, 6000.0, conf.Household.Incomes[0].BaseMonthlyWage)
	assert.True(t, conf.Household.Incomes[0].AccountForBonus)
	require.Len(t, conf.Household.Incomes[0].Bonuses, 1)
	assert.Equal(t, 12, conf.Household.Incomes[0].Bonuses[0].Month)
	assert.False(t, conf.Household.Incomes[2].SubjectToCpf)

	require.Len(t, conf.Household.Loans, 1)
	assert.Equal(t, 1800.0, conf.Household.Loans[0].MonthlyAmount)

	assert.Equal(t, 60, conf.Projection.HorizonMonths)
	assert.Equal(t, "2025-01", conf.Projection.BaselineDate)
	assert.Equal(t, "info", conf.Logging.Level)
	assert.Equal(t, "pretty", conf.Output.Format)
}

func TestLoadConfigurationMissingFile(t *testing.T) {
	_, err := LoadConfiguration("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}

func TestProjectionInput(t *testing.T) {
	conf := loadTestConfiguration(t)

	input, err := conf.ProjectionInput()
	require.NoError(t, err)

	assert.Equal(t, 60, input.Horizon)
	assert.Equal(t, time.January, input.Baseline.Month())
	assert.Equal(t, 2025, input.Baseline.Year())

	require.Len(t, input.Members, 3)
	require.NotNil(t, input.Members[0].DateOfBirth)
	assert.Equal(t, 1985, input.Members[0].DateOfBirth.Year())
	assert.Nil(t, input.Members[2].DateOfBirth)

	require.Len(t, input.Streams, 3)
	assert.True(t, input.Streams[0].BaseMonthlyWage.Equal(decimal.RequireFromString("6000")))
	assert.True(t, input.Streams[1].BaseMonthlyWage.Equal(decimal.RequireFromString("4200.50")))

	require.Len(t, input.Deductions, 1)
	assert.True(t, input.Deductions[0].MonthlyAmount.Equal(decimal.RequireFromString("1800")))
	assert.Equal(t, "", input.Deductions[0].AttributeTo)
}

func TestProjectionInputDefaultBaseline(t *testing.T) {
	conf := loadTestConfiguration(t)
	conf.Projection.BaselineDate = ""

	fixed := time.Date(2026, time.March, 17, 10, 0, 0, 0, time.UTC)
	input, err := conf.ProjectionInputWithFixedTime(fixed)
	require.NoError(t, err)
	assert.Equal(t, 2026, input.Baseline.Year())
	assert.Equal(t, time.March, input.Baseline.Month())
}

func TestProjectionInputInvalidDates(t *testing.T) {
	conf := loadTestConfiguration(t)
	conf.Household.Members[0].DateOfBirth = "not-a-date"
	_, err := conf.ProjectionInput()
	assert.Error(t, err)

	conf = loadTestConfiguration(t)
	conf.Projection.BaselineDate = "2025-13"
	_, err = conf.ProjectionInput()
	assert.Error(t, err)
}

func TestCeilingPolicyOverrides(t *testing.T) {
	conf := loadTestConfiguration(t)

	policy := conf.CeilingPolicy()
	assert.True(t, policy.OrdinaryCeiling.Equal(decimal.RequireFromString("7400")))
	assert.True(t, policy.AnnualCeiling.Equal(decimal.RequireFromString("102000")))

	conf.Policy.OrdinaryWageCeiling = 6000
	policy = conf.CeilingPolicy()
	assert.True(t, policy.OrdinaryCeiling.Equal(decimal.RequireFromString("6000")))

	// Zero means "use the default", not a zero ceiling.
	conf.Policy.OrdinaryWageCeiling = 0
	policy = conf.CeilingPolicy()
	assert.True(t, policy.OrdinaryCeiling.Equal(cpf.DefaultCeilingPolicy().OrdinaryCeiling))
}

func TestTablesVersionSelection(t *testing.T) {
	conf := loadTestConfiguration(t)

	contrib, alloc, err := conf.Tables()
	require.NoError(t, err)
	assert.Equal(t, cpf.DefaultTableVersion, contrib.Version)
	assert.Equal(t, cpf.DefaultTableVersion, alloc.Version)

	conf.Policy.TableVersion = "1999"
	_, _, err = conf.Tables()
	assert.Error(t, err, "unknown table version must not fall back silently")
}

func TestValidateConfigurationWarnings(t *testing.T) {
	conf := loadTestConfiguration(t)

	warnings := conf.ValidateConfiguration()

	// Carol has no date of birth and no income stream of her own.
	require.NotEmpty(t, warnings)
	joined := ""
	for _, w := range warnings {
		joined += w + "\n"
	}
	assert.Contains(t, joined, "Carol")

	// A clean configuration produces no warnings.
	conf.Household.Members = conf.Household.Members[:2]
	conf.Household.Incomes = conf.Household.Incomes[:2]
	assert.Empty(t, conf.ValidateConfiguration())
}
