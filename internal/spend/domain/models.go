package domain

import "github.com/shopspring/decimal"

// YearAmount is one billed amount attributed to a calendar year.
type YearAmount struct {
	Year   int
	Amount decimal.Decimal
}

type SpendDetail struct {
	Year       int             `json:"year"`
	TotalSpend decimal.Decimal `json:"total_spend"`
}

// SpendSummary holds a supplier's spend per year in first-seen year order.
type SpendSummary struct {
	Name  string        `json:"name"`
	Years []SpendDetail `json:"years"`
}
