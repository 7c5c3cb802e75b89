package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Dataset is a bulk set of records, used to seed stores from JSON.
type Dataset struct {
	IncomeSources     []IncomeSource     `json:"income_sources"`
	SideProjects      []SideProject      `json:"side_projects"`
	RecurringExpenses []RecurringExpense `json:"recurring_expenses"`
	Goals             []FinancialGoal    `json:"goals"`
	OneTimeIncomes    []OneTimeIncome    `json:"one_time_incomes"`
	Accounts          []FinancialAccount `json:"accounts"`
	Settings          []UserSettings     `json:"settings"`
}

// Validate checks every record of the dataset.
func (d Dataset) Validate() error {
	for _, s := range d.IncomeSources {
		if err := s.Validate(); err != nil {
			return wrapRecord("income source", s.ID, err)
		}
	}
	for _, p := range d.SideProjects {
		if err := p.Validate(); err != nil {
			return wrapRecord("side project", p.ID, err)
		}
	}
	for _, e := range d.RecurringExpenses {
		if err := e.Validate(); err != nil {
			return wrapRecord("expense", e.ID, err)
		}
	}
	for _, g := range d.Goals {
		if err := g.Validate(); err != nil {
			return wrapRecord("goal", g.ID, err)
		}
	}
	for _, i := range d.OneTimeIncomes {
		if err := i.Validate(); err != nil {
			return wrapRecord("one-time income", i.ID, err)
		}
	}
	for _, a := range d.Accounts {
		if err := a.Validate(); err != nil {
			return wrapRecord("account", a.ID, err)
		}
	}
	for _, s := range d.Settings {
		if err := s.Validate(); err != nil {
			return wrapRecord("settings", s.Owner, err)
		}
	}
	return nil
}

func wrapRecord(entity, id string, err error) error {
	return fmt.Errorf("%s %s: %w", entity, id, err)
}

// DecodeDataset reads a JSON dataset. Records without an id get a random
// UUID and records without an owner get defaultOwner.
func DecodeDataset(r io.Reader, defaultOwner string) (Dataset, error) {
	var d Dataset
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	d.fill(defaultOwner)
	if err := d.Validate(); err != nil {
		return Dataset{}, err
	}
	return d, nil
}

func (d *Dataset) fill(defaultOwner string) {
	fill := func(id, owner *string) {
		if *id == "" {
			*id = uuid.NewString()
		}
		if *owner == "" {
			*owner = defaultOwner
		}
	}
	for i := range d.IncomeSources {
		fill(&d.IncomeSources[i].ID, &d.IncomeSources[i].Owner)
	}
	for i := range d.SideProjects {
		fill(&d.SideProjects[i].ID, &d.SideProjects[i].Owner)
	}
	for i := range d.RecurringExpenses {
		fill(&d.RecurringExpenses[i].ID, &d.RecurringExpenses[i].Owner)
	}
	for i := range d.Goals {
		fill(&d.Goals[i].ID, &d.Goals[i].Owner)
	}
	for i := range d.OneTimeIncomes {
		fill(&d.OneTimeIncomes[i].ID, &d.OneTimeIncomes[i].Owner)
	}
	for i := range d.Accounts {
		fill(&d.Accounts[i].ID, &d.Accounts[i].Owner)
	}
	for i := range d.Settings {
		s := &d.Settings[i]
		if s.Owner == "" {
			s.Owner = defaultOwner
		}
		if s.BankReserveType == "" {
			s.BankReserveType = ReserveAmount
		}
		if s.Currency == "" {
			s.Currency = "USD"
		}
	}
}
