package cpf

import "github.com/shopspring/decimal"

// DefaultTableVersion identifies the regulatory schedule the built-in tables
// reproduce. Table updates get a new version string; the simulator never
// hardcodes an age branch, so swapping schedules is a data change only.
const DefaultTableVersion = "2025"

func rate(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DefaultContributionTable returns the built-in employee/employer contribution
// schedule. Rates step down with age; the final band is open-ended.
func DefaultContributionTable() ContributionTable {
	return ContributionTable{
		Version: DefaultTableVersion,
		Bands: []RateBand{
			{MinAge: 0, MaxAge: 55, Employee: rate("0.20"), Employer: rate("0.17")},
			{MinAge: 56, MaxAge: 60, Employee: rate("0.17"), Employer: rate("0.155")},
			{MinAge: 61, MaxAge: 65, Employee: rate("0.115"), Employer: rate("0.12")},
			{MinAge: 66, MaxAge: 70, Employee: rate("0.075"), Employer: rate("0.09")},
			{MinAge: 71, MaxAge: OpenEnded, Employee: rate("0.05"), Employer: rate("0.075")},
		},
	}
}

// DefaultAllocationTable returns the built-in OA/SA/MA allocation ratios.
// Every band's ratios sum to exactly 1; allocation shifts from the ordinary
// account toward medical savings as age increases.
func DefaultAllocationTable() AllocationTable {
	return AllocationTable{
		Version: DefaultTableVersion,
		Bands: []AllocationBand{
			{MinAge: 0, MaxAge: 35, OA: rate("0.6217"), SA: rate("0.1621"), MA: rate("0.2162")},
			{MinAge: 36, MaxAge: 45, OA: rate("0.5677"), SA: rate("0.1891"), MA: rate("0.2432")},
			{MinAge: 46, MaxAge: 50, OA: rate("0.5136"), SA: rate("0.2162"), MA: rate("0.2702")},
			{MinAge: 51, MaxAge: 55, OA: rate("0.4055"), SA: rate("0.3108"), MA: rate("0.2837")},
			{MinAge: 56, MaxAge: 60, OA: rate("0.3694"), SA: rate("0.3076"), MA: rate("0.3230")},
			{MinAge: 61, MaxAge: 65, OA: rate("0.1592"), SA: rate("0.3936"), MA: rate("0.4472")},
			{MinAge: 66, MaxAge: 70, OA: rate("0.0607"), SA: rate("0.3031"), MA: rate("0.6362")},
			{MinAge: 71, MaxAge: OpenEnded, OA: rate("0.08"), SA: rate("0.08"), MA: rate("0.84")},
		},
	}
}
