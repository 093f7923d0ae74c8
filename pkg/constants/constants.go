// Package constants provides shared constants for the cpf-forecast application.
package constants

// DateTimeLayout is the month format expected in config files and is also the
// output date format.
const DateTimeLayout = "2006-01"

// DateOfBirthLayout is the full-date format used for member dates of birth.
const DateOfBirthLayout = "2006-01-02"

// MonthsPerYear is the number of months in a year
const MonthsPerYear = 12

// HorizonPresets are the month counts offered by the presentation layer; the
// engine accepts any positive month count.
var HorizonPresets = []int{12, 24, 36, 60, 120, 240}

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size for
	// projection requests (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024
)

// Wage ceiling defaults; overridable per run through the policy section of
// the configuration.
const (
	// DefaultOrdinaryWageCeiling is the monthly OW ceiling in dollars
	DefaultOrdinaryWageCeiling = "7400"

	// DefaultAnnualWageCeiling is the annual CPF-attracting wage ceiling in dollars
	DefaultAnnualWageCeiling = "102000"
)
