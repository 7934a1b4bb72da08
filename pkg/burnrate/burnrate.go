package burnrate

import (
	"time"

	"github.com/burnwise/burnwise/internal/utils"
	"github.com/shopspring/decimal"
)

type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthWarning  Health = "warning"
	HealthCritical Health = "critical"
)

var (
	warningThreshold  = decimal.NewFromInt(80)
	criticalThreshold = decimal.NewFromInt(100)
	hundred           = decimal.NewFromInt(100)
	// daysPerPeriod is the length of an average calendar month.
	daysPerPeriod = decimal.RequireFromString("30.4375")
)

// ClassifyHealth maps a burn rate percentage to a health indicator.
func ClassifyHealth(percentage decimal.Decimal) Health {
	switch {
	case percentage.GreaterThan(criticalThreshold):
		return HealthCritical
	case percentage.GreaterThan(warningThreshold):
		return HealthWarning
	default:
		return HealthHealthy
	}
}

// PeriodConsumption is the budget consumed in one period of the burn trend,
// usually a YYYY-MM month.
type PeriodConsumption struct {
	Period string
	Amount decimal.Decimal
}

type Input struct {
	TotalBudget        decimal.Decimal
	ConsumedBudget     decimal.Decimal
	EstimatedHours     decimal.Decimal
	ActualHours        decimal.Decimal
	MonthlyConsumption []PeriodConsumption
}

type Snapshot struct {
	TotalBudget         decimal.Decimal
	ConsumedBudget      decimal.Decimal
	BurnRatePercentage  decimal.Decimal
	EstimatedHours      decimal.Decimal
	ActualHours         decimal.Decimal
	HoursVariance       decimal.Decimal
	ProjectedCompletion *time.Time
}

func (s Snapshot) Health() Health {
	return ClassifyHealth(s.BurnRatePercentage)
}

type Calculator struct {
	clock utils.Clock
}

func NewCalculator(clock utils.Clock) *Calculator {
	return &Calculator{clock: clock}
}

func (c *Calculator) Calculate(in Input) Snapshot {
	return Snapshot{
		TotalBudget:         in.TotalBudget,
		ConsumedBudget:      in.ConsumedBudget,
		BurnRatePercentage:  Percentage(in.TotalBudget, in.ConsumedBudget),
		EstimatedHours:      in.EstimatedHours,
		ActualHours:         in.ActualHours,
		HoursVariance:       in.ActualHours.Sub(in.EstimatedHours),
		ProjectedCompletion: ProjectCompletion(in, utils.Today(c.clock)),
	}
}

// Percentage returns consumed/total*100, or zero when there is no budget.
func Percentage(total, consumed decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return consumed.Div(total).Mul(hundred)
}

// ProjectCompletion extrapolates the average burn per elapsed period to the
// date the remaining budget runs out. It returns nil when nothing has been
// consumed yet or no period has elapsed, and today when the budget is already
// exhausted.
func ProjectCompletion(in Input, today time.Time) *time.Time {
	if !in.ConsumedBudget.IsPositive() {
		return nil
	}
	if in.TotalBudget.LessThanOrEqual(in.ConsumedBudget) {
		return &today
	}

	elapsed := 0
	for _, p := range in.MonthlyConsumption {
		if p.Period != "" {
			elapsed++
		}
	}
	if elapsed == 0 {
		return nil
	}

	rate := in.ConsumedBudget.Div(decimal.NewFromInt(int64(elapsed)))
	periodsNeeded := in.TotalBudget.Sub(in.ConsumedBudget).Div(rate)
	days := periodsNeeded.Mul(daysPerPeriod).Ceil().IntPart()

	completion := today.AddDate(0, 0, int(days))
	return &completion
}
