package core

// ContributionKind labels a line of a goal breakdown.
type ContributionKind string

const (
	ContributionRecurring ContributionKind = "recurring_surplus"
	ContributionOneTime   ContributionKind = "one_time_income"
	ContributionInterest  ContributionKind = "interest"
)

// ContractPaymentKind distinguishes the two contract-style lump sums.
type ContractPaymentKind string

const (
	ContractInitial ContractPaymentKind = "initial"
	ContractFinal   ContractPaymentKind = "final"
)

// MonthlyBand is a low / mid / high monthly amount. The three are equal for
// non-commission income.
type MonthlyBand struct {
	Low  Money `json:"low"`
	Mid  Money `json:"mid"`
	High Money `json:"high"`
}

// SourceEstimate is the normalized monthly estimate of one income source.
type SourceEstimate struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Kind            IncomeKind  `json:"kind"`
	PayFrequency    Frequency   `json:"payFrequency"`
	Commission      bool        `json:"commission"`
	MonthlyEstimate MonthlyBand `json:"monthlyEstimate"`
}

type ContractPayment struct {
	SourceID string              `json:"sourceId"`
	Kind     ContractPaymentKind `json:"kind"`
	Amount   Money               `json:"amount"`
	Date     Date                `json:"date"`
}

type IncomeSummary struct {
	AsOf                        Date              `json:"asOf"`
	TotalMonthlyLow             Money             `json:"totalMonthlyLow"`
	TotalMonthlyMid             Money             `json:"totalMonthlyMid"`
	TotalMonthlyHigh            Money             `json:"totalMonthlyHigh"`
	HasVariableIncome           bool              `json:"hasVariableIncome"`
	Sources                     []SourceEstimate  `json:"sources"`
	SideProjectMonthly          Money             `json:"sideProjectMonthly"`
	ProjectedSideProjectMonthly Money             `json:"projectedSideProjectMonthly"`
	ContractPayments            []ContractPayment `json:"contractPayments"`
	ContractPaymentsThisMonth   Money             `json:"contractPaymentsThisMonth"`
}

type ExpenseEstimate struct {
	ExpenseID       string    `json:"expenseId"`
	Category        string    `json:"category"`
	Cadence         Frequency `json:"cadence"`
	MonthlyEstimate Money     `json:"monthlyEstimate"`
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

type ExpenseSummary struct {
	AsOf                 Date              `json:"asOf"`
	TotalMonthlyExpenses Money             `json:"totalMonthlyExpenses"`
	Items                []ExpenseEstimate `json:"items"`
	ByCategory           []CategoryAmount  `json:"byCategory"`
}

type AccountSummary struct {
	TotalBalance      Money  `json:"totalBalance"`
	CheckingBalance   Money  `json:"checkingBalance"`
	SavingsBalance    Money  `json:"savingsBalance"`
	CheckingCount     int    `json:"checkingCount"`
	SavingsCount      int    `json:"savingsCount"`
	PrimaryCheckingID string `json:"primaryCheckingId,omitempty"`
	PrimarySavingsID  string `json:"primarySavingsId,omitempty"`
}

// DailyTarget is the single amount to act on today plus its breakdown.
type DailyTarget struct {
	AsOf                    Date    `json:"asOf"`
	DailyTarget             Money   `json:"dailyTarget"`
	MonthlySurplus          Money   `json:"monthlySurplus"`
	SavingsRate             float64 `json:"savingsRate"`
	FinancialCushion        Money   `json:"financialCushion"`
	Reserve                 Money   `json:"reserve"`
	TotalMonthlyObligations Money   `json:"totalMonthlyObligations"`
	DaysInMonth             int     `json:"daysInMonth"`
	IsDeficit               bool    `json:"isDeficit"`
	UsedFallback            bool    `json:"usedFallback"`
}

type DerivedMetrics struct {
	TotalMonthlyIncome      Money   `json:"totalMonthlyIncome"`
	TotalMonthlyExpenses    Money   `json:"totalMonthlyExpenses"`
	MonthlySurplus          Money   `json:"monthlySurplus"`
	SavingsRate             float64 `json:"savingsRate"`
	FinancialCushion        Money   `json:"financialCushion"`
	TotalMonthlyObligations Money   `json:"totalMonthlyObligations"`
}

// GoalProjection is the forecast for one goal. MonthsRemaining is nil and
// Unreachable is set when the goal receives no contribution.
type GoalProjection struct {
	GoalID                      string   `json:"goalId"`
	Rank                        int      `json:"rank"`
	Priority                    Priority `json:"priority"`
	TargetAmount                Money    `json:"targetAmount"`
	CurrentAmount               Money    `json:"currentAmount"`
	Remaining                   Money    `json:"remaining"`
	ProgressPercentage          float64  `json:"progressPercentage"`
	MonthlyContribution         Money    `json:"monthlyContribution"`
	MonthsRemaining             *int     `json:"monthsRemaining"`
	Unreachable                 bool     `json:"unreachable"`
	ProjectedCompletionDate     Date     `json:"projectedCompletionDate"`
	Deadline                    Date     `json:"deadline"`
	RequiredMonthlyContribution *Money   `json:"requiredMonthlyContribution,omitempty"`
	RequiredDailyContribution   *Money   `json:"requiredDailyContribution,omitempty"`
	OnTrack                     bool     `json:"onTrack"`
}

type GoalProjections struct {
	AsOf               Date             `json:"asOf"`
	MonthlySurplus     Money            `json:"monthlySurplus"`
	Allocated          Money            `json:"allocated"`
	UnallocatedSurplus Money            `json:"unallocatedSurplus"`
	Goals              []GoalProjection `json:"goals"`
}

// Find returns the projection of goalID, if present.
func (p GoalProjections) Find(goalID string) (GoalProjection, bool) {
	for _, g := range p.Goals {
		if g.GoalID == goalID {
			return g, true
		}
	}
	return GoalProjection{}, false
}

type Contribution struct {
	Kind     ContributionKind `json:"kind"`
	Amount   Money            `json:"amount"`
	Date     Date             `json:"date"`
	SourceID string           `json:"sourceId,omitempty"`
	// MonthlyRate is set on the recurring line only.
	MonthlyRate *Money `json:"monthlyRate,omitempty"`
}

type GoalBreakdown struct {
	GoalID              string         `json:"goalId"`
	TargetAmount        Money          `json:"targetAmount"`
	CurrentAmount       Money          `json:"currentAmount"`
	Remaining           Money          `json:"remaining"`
	Contributions       []Contribution `json:"contributions"`
	MonthlyContribution Money          `json:"monthlyContribution"`
	ProjectedCompletion Date           `json:"projectedCompletion"`
	ManualAdjustment    Money          `json:"manualAdjustment"`
	Discrepancy         Money          `json:"discrepancy"`
	Consistent          bool           `json:"consistent"`
}

// Total sums every contribution line.
func (b GoalBreakdown) Total() Money {
	var total Money
	for _, c := range b.Contributions {
		total = total.Add(c.Amount)
	}
	return total
}

// ApplyResult is the outcome of crediting a one-time income. Projections is
// filled by the finance service after the transition has been persisted.
type ApplyResult struct {
	Goal         FinancialGoal    `json:"goal"`
	Income       OneTimeIncome    `json:"income"`
	ExcessAmount Money            `json:"excessAmount"`
	Projections  *GoalProjections `json:"projections,omitempty"`
}

// ApplyPlanner computes the applied state of a goal and income pair. Stores
// invoke it inside their atomic section so the check and the write see the
// same records.
type ApplyPlanner func(goal FinancialGoal, income OneTimeIncome) (ApplyResult, error)

// Snapshot is the complete computed picture for one owner and as-of date.
type Snapshot struct {
	Owner    string          `json:"owner"`
	AsOf     Date            `json:"asOf"`
	Income   IncomeSummary   `json:"income"`
	Expenses ExpenseSummary  `json:"expenses"`
	Accounts AccountSummary  `json:"accounts"`
	Daily    DailyTarget     `json:"daily"`
	Metrics  DerivedMetrics  `json:"metrics"`
	Goals    GoalProjections `json:"goals"`
}
