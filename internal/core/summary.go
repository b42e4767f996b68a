package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Category Category
	Amount   decimal.Decimal
}

// Point is one labelled value of a chronological series.
type Point struct {
	Label string
	Value decimal.Decimal
}
