package projection

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finhaus/cpf-forecast/pkg/constants"
	"github.com/finhaus/cpf-forecast/pkg/money"
)

// applyDeductions computes each member's loan deduction for simulation month
// m and subtracts it from balances, the members' prospective cumulative OA
// balances for the month (this month's delta already added). It returns the
// applied per-member amounts.
//
// Deductions only ever touch OA and never drive a balance below zero: a
// scheduled amount exceeding the available balance clamps to what is there.
// Member-attributed windows drain the named member alone; household windows
// are split pro-rata across current member OA balances with a
// largest-remainder cent distribution, which keeps every household figure the
// exact sum of its member figures.
func applyDeductions(logger *zap.Logger, windows []deductionWindow, m int, date time.Time, memberIDs []string, balances map[string]decimal.Decimal) map[string]decimal.Decimal {
	applied := make(map[string]decimal.Decimal, len(memberIDs))
	for _, id := range memberIDs {
		applied[id] = decimal.Zero
	}

	for _, w := range windows {
		if m < w.start || m >= w.end {
			continue
		}

		if w.memberID != "" {
			available := balances[w.memberID]
			amount := money.Min(w.amount, money.Max(available, decimal.Zero))
			if !amount.IsPositive() {
				continue
			}
			balances[w.memberID] = available.Sub(amount)
			applied[w.memberID] = applied[w.memberID].Add(amount)
			logDeduction(logger, date, w.memberID, amount, w.amount)
			continue
		}

		householdAvailable := decimal.Zero
		weights := make([]decimal.Decimal, len(memberIDs))
		for i, id := range memberIDs {
			weights[i] = money.Max(balances[id], decimal.Zero)
			householdAvailable = householdAvailable.Add(weights[i])
		}
		amount := money.Min(w.amount, householdAvailable)
		if !amount.IsPositive() {
			continue
		}
		parts := money.DistributeProRata(amount, weights)
		for i, id := range memberIDs {
			if parts[i].IsZero() {
				continue
			}
			balances[id] = balances[id].Sub(parts[i])
			applied[id] = applied[id].Add(parts[i])
		}
		logDeduction(logger, date, "household", amount, w.amount)
	}

	return applied
}

func logDeduction(logger *zap.Logger, date time.Time, target string, applied, scheduled decimal.Decimal) {
	if applied.Equal(scheduled) {
		logger.Debug("loan deduction applied",
			zap.String("op", "projection.applyDeductions"),
			zap.String("date", date.Format(constants.DateTimeLayout)),
			zap.String("target", target),
			zap.String("amount", applied.String()),
		)
		return
	}
	logger.Debug("loan deduction clamped to available ordinary-account balance",
		zap.String("op", "projection.applyDeductions"),
		zap.String("date", date.Format(constants.DateTimeLayout)),
		zap.String("target", target),
		zap.String("scheduled", scheduled.String()),
		zap.String("applied", applied.String()),
	)
}
