package core

import (
	"errors"
	"time"
)

const (
	Daily       Frequency = "daily"
	Weekly      Frequency = "weekly"
	Biweekly    Frequency = "biweekly"
	Semimonthly Frequency = "semimonthly"
	Monthly     Frequency = "monthly"
	Quarterly   Frequency = "quarterly"
	Yearly      Frequency = "yearly"
	Variable    Frequency = "variable"
)

const (
	KindSalary     IncomeKind = "salary"
	KindHourly     IncomeKind = "hourly"
	KindCommission IncomeKind = "commission"
	KindFreelance  IncomeKind = "freelance"
	KindOther      IncomeKind = "other"
)

const (
	StatusActive SourceStatus = "active"
	StatusPaused SourceStatus = "paused"
	StatusEnded  SourceStatus = "ended"
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const (
	SourceSale        OneTimeSource = "sale"
	SourceGift        OneTimeSource = "gift"
	SourceBonus       OneTimeSource = "bonus"
	SourceRefund      OneTimeSource = "refund"
	SourceCashback    OneTimeSource = "cashback"
	SourceSettlement  OneTimeSource = "settlement"
	SourceInheritance OneTimeSource = "inheritance"
	SourceOther       OneTimeSource = "other"
)

const (
	AccountChecking AccountType = "checking"
	AccountSavings  AccountType = "savings"
)

const (
	ReserveAmount     ReserveType = "amount"
	ReservePercentage ReserveType = "percentage"
)

// DefaultUrgency is used for goals stored without an urgency score.
const DefaultUrgency = 3

type (
	// Frequency covers both income pay frequencies and expense cadences.
	Frequency string

	IncomeKind    string
	SourceStatus  string
	Priority      string
	OneTimeSource string
	AccountType   string
	ReserveType   string

	// Date is a calendar day. The time component is always midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}
)

var (
	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
)

// IsValidPayFrequency reports whether f may be used as an income pay frequency.
func (f Frequency) IsValidPayFrequency() bool {
	switch f {
	case Weekly, Biweekly, Semimonthly, Monthly, Variable:
		return true
	}
	return false
}

// IsValidCadence reports whether f may be used as a recurring expense cadence.
func (f Frequency) IsValidCadence() bool {
	switch f {
	case Daily, Weekly, Biweekly, Semimonthly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

func (k IncomeKind) IsValid() bool {
	switch k {
	case KindSalary, KindHourly, KindCommission, KindFreelance, KindOther:
		return true
	}
	return false
}

func (s SourceStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusEnded:
		return true
	}
	return false
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank orders priorities so that higher priorities compare greater.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func (s OneTimeSource) IsValid() bool {
	switch s {
	case SourceSale, SourceGift, SourceBonus, SourceRefund, SourceCashback,
		SourceSettlement, SourceInheritance, SourceOther:
		return true
	}
	return false
}

func (t AccountType) IsValid() bool {
	switch t {
	case AccountChecking, AccountSavings:
		return true
	}
	return false
}

func (t ReserveType) IsValid() bool {
	switch t {
	case ReserveAmount, ReservePercentage:
		return true
	}
	return false
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Time.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// DaysInMonth returns the calendar length of d's month (28-31).
func (d Date) DaysInMonth() int {
	return time.Date(d.Year(), time.Month(d.Month())+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths adds n calendar months, clamping to the last day of the target
// month instead of overflowing (Jan 31 + 1 month = Feb 28/29).
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year(), time.Month(d.Month())+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := d.Day()
	if day > last {
		day = last
	}
	return NewDate(first.Year(), int(first.Month()), day)
}

// SameMonth reports whether d and o fall in the same calendar month.
func (d Date) SameMonth(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month()
}

// DaysUntil returns the whole days from d to o (negative when o is earlier).
func (d Date) DaysUntil(o Date) int {
	return int(o.Time.Sub(d.Time).Hours() / 24)
}

// MonthsUntil returns the whole calendar months from d to o. A partial
// trailing month is not counted; the result is negative when o is earlier.
func (d Date) MonthsUntil(o Date) int {
	months := (o.Year()-d.Year())*12 + (o.Month() - d.Month())
	if months > 0 && o.Day() < d.Day() && o.Day() < o.DaysInMonth() {
		months--
	}
	return months
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
