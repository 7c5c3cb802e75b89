package services

import (
	"fmt"
	"sort"
	"strings"

	"risparmi/internal/core"
)

const uncategorized = "uncategorized"

// AggregateExpenses sums the expenses active on asOf into a monthly total
// with per-item and per-category detail.
func (e *Engine) AggregateExpenses(expenses []core.RecurringExpense, asOf core.Date) (core.ExpenseSummary, error) {
	out := core.ExpenseSummary{
		AsOf:       asOf,
		Items:      []core.ExpenseEstimate{},
		ByCategory: []core.CategoryAmount{},
	}
	byCat := make(map[string]core.Money)

	for _, x := range expenses {
		if err := x.Validate(); err != nil {
			return core.ExpenseSummary{}, fmt.Errorf("expense %s: %w", x.ID, err)
		}
		if !x.ActiveOn(asOf) {
			continue
		}
		monthly, err := e.periods.Monthly(x.Amount, x.Cadence)
		if err != nil {
			return core.ExpenseSummary{}, fmt.Errorf("expense %s: %w", x.ID, err)
		}
		m := core.FromDecimal(monthly)
		cat := strings.TrimSpace(x.Category)
		if cat == "" {
			cat = uncategorized
		}
		out.Items = append(out.Items, core.ExpenseEstimate{
			ExpenseID:       x.ID,
			Category:        cat,
			Cadence:         x.Cadence,
			MonthlyEstimate: m,
		})
		out.TotalMonthlyExpenses = out.TotalMonthlyExpenses.Add(m)
		byCat[cat] = byCat[cat].Add(m)
	}

	for name, amount := range byCat {
		out.ByCategory = append(out.ByCategory, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out.ByCategory, func(i, j int) bool {
		a, b := out.ByCategory[i], out.ByCategory[j]
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents > b.Amount.Cents
		}
		return a.Name < b.Name
	})
	return out, nil
}

// SummarizeAccounts totals balances overall and per account type.
func (e *Engine) SummarizeAccounts(accounts []core.FinancialAccount) (core.AccountSummary, error) {
	var out core.AccountSummary
	for _, a := range accounts {
		if err := a.Validate(); err != nil {
			return core.AccountSummary{}, fmt.Errorf("account %s: %w", a.ID, err)
		}
		out.TotalBalance = out.TotalBalance.Add(a.Balance)
		switch a.AccountType {
		case core.AccountChecking:
			out.CheckingBalance = out.CheckingBalance.Add(a.Balance)
			out.CheckingCount++
			if a.IsPrimary && out.PrimaryCheckingID == "" {
				out.PrimaryCheckingID = a.ID
			}
		case core.AccountSavings:
			out.SavingsBalance = out.SavingsBalance.Add(a.Balance)
			out.SavingsCount++
			if a.IsPrimary && out.PrimarySavingsID == "" {
				out.PrimarySavingsID = a.ID
			}
		}
	}
	return out, nil
}
