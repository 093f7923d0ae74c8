// Package output provides utilities for formatting and displaying projection results.
package output

import (
	"fmt"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/finhaus/cpf-forecast/internal/projection"
)

// memberOrder returns member ids in a stable, sorted order.
func memberOrder(result *projection.Projection) []string {
	ids := make([]string, 0, len(result.MemberNames))
	for id := range result.MemberNames {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PrettyFormat outputs a human-readable rather than machine-readable table of
// the household's cumulative balances.
func PrettyFormat(result *projection.Projection) {
	p := message.NewPrinter(language.English)

	fmt.Printf("--- CPF projection from %s over %d months (tables %s) ---\n",
		result.BaselineDate, result.Horizon, result.TableVersion)
	fmt.Printf("Date    | OA            | SA            | MA            | Total         | Earned        | Deducted\n")
	fmt.Printf("____    | __            | __            | __            | _____         | ______        | ________\n")

	for _, point := range result.Points {
		h := point.Household
		_, _ = p.Printf("%s | $%.2f | $%.2f | $%.2f | $%.2f | $%.2f | $%.2f\n",
			point.Date,
			h.Cumulative.OA.InexactFloat64(),
			h.Cumulative.SA.InexactFloat64(),
			h.Cumulative.MA.InexactFloat64(),
			h.Cumulative.Total.InexactFloat64(),
			h.Monthly.Total.InexactFloat64(),
			h.LoanDeduction.InexactFloat64(),
		)
	}
}

// CsvFormat outputs in comma-separated value format, one row per month with
// household columns followed by per-member cumulative totals.
func CsvFormat(result *projection.Projection) {
	ids := memberOrder(result)

	fmt.Printf(`"date","household oa","household sa","household ma","household total","household monthly","household deduction"`)
	for _, id := range ids {
		name := result.MemberNames[id]
		if name == "" {
			name = id
		}
		fmt.Printf(`,"%s total","%s monthly"`, name, name)
	}
	fmt.Printf("\n")

	for _, point := range result.Points {
		h := point.Household
		fmt.Printf(`"%s","%s","%s","%s","%s","%s","%s"`,
			point.Date,
			h.Cumulative.OA.StringFixed(2),
			h.Cumulative.SA.StringFixed(2),
			h.Cumulative.MA.StringFixed(2),
			h.Cumulative.Total.StringFixed(2),
			h.Monthly.Total.StringFixed(2),
			h.LoanDeduction.StringFixed(2),
		)
		for _, id := range ids {
			snap := point.Members[id]
			fmt.Printf(`,"%s","%s"`, snap.Cumulative.Total.StringFixed(2), snap.Monthly.Total.StringFixed(2))
		}
		fmt.Printf("\n")
	}
}
