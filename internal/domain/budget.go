package domain

// BudgetPeriod is a token accounting window.
type BudgetPeriod string

// Budget periods.
const (
	BudgetDaily   BudgetPeriod = "daily"
	BudgetMonthly BudgetPeriod = "monthly"
)
