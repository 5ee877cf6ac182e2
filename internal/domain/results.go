package domain

import "math"

// BeerResult is one line of a room's final results, in flight order.
type BeerResult struct {
	Order         int         `json:"order"`
	Beer          BeerSummary `json:"beer"`
	AverageRating *float64    `json:"average_rating"`
}

// UserResult is one of the caller's own ratings in a room, in flight order.
type UserResult struct {
	Order int         `json:"order"`
	Beer  BeerSummary `json:"beer"`
	RatingView
}

// RoundAverage rounds to two decimals.
func RoundAverage(v float64) float64 {
	return math.Round(v*100) / 100
}
