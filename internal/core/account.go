package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// FinancialAccount balances are signed; overdrafts are negative.
	FinancialAccount struct {
		ID          string      `json:"id"`
		Owner       string      `json:"owner"`
		AccountType AccountType `json:"account_type"`
		Balance     Money       `json:"balance"`
		Institution string      `json:"institution"`
		IsPrimary   bool        `json:"is_primary"`
	}

	UserSettings struct {
		Owner             string      `json:"owner"`
		DailyBudgetTarget Money       `json:"daily_budget_target"`
		Currency          string      `json:"currency"`
		BankReserveType   ReserveType `json:"bank_reserve_type"`
		// BankReserveAmount is a currency amount or a percentage (0-100)
		// depending on BankReserveType.
		BankReserveAmount decimal.Decimal `json:"bank_reserve_amount"`
	}
)

// DefaultSettings is used for owners without stored settings.
func DefaultSettings(owner string) UserSettings {
	return UserSettings{
		Owner:           owner,
		Currency:        "USD",
		BankReserveType: ReserveAmount,
	}
}

func (a FinancialAccount) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return Invalid("id", "must not be empty")
	}
	if !a.AccountType.IsValid() {
		return Invalid("account_type", "unknown account type "+string(a.AccountType))
	}
	return nil
}

func (s UserSettings) Validate() error {
	if !s.BankReserveType.IsValid() {
		return Invalid("bank_reserve_type", "unknown reserve type "+string(s.BankReserveType))
	}
	if s.BankReserveAmount.IsNegative() {
		return Invalid("bank_reserve_amount", "must be non-negative")
	}
	if s.BankReserveType == ReservePercentage && s.BankReserveAmount.GreaterThan(decimal.NewFromInt(100)) {
		return Invalid("bank_reserve_amount", "percentage must not exceed 100")
	}
	if s.DailyBudgetTarget.IsNegative() {
		return Invalid("daily_budget_target", "must be non-negative")
	}
	return nil
}
