package project

import "github.com/shopspring/decimal"

type Project struct {
	Id             int
	Name           string
	Client         string
	EstimatedHours decimal.Decimal
	// TotalBudget is the authoritative contract value. It is recomputed from
	// approved amendments whenever an amendment gets approved.
	TotalBudget decimal.Decimal
}
