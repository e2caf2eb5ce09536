package model

import "math"

// DailyNutrition is one calendar-day bucket of summed, serving-adjusted macros.
type DailyNutrition struct {
	Date     string  `json:"date"`
	Calories int     `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// DailyNutritionRow is the raw aggregate a store returns before rounding.
type DailyNutritionRow struct {
	Date     string  `db:"date"`
	Calories float64 `db:"calories"`
	ProteinG float64 `db:"protein_g"`
	CarbsG   float64 `db:"carbs_g"`
	FatG     float64 `db:"fat_g"`
}

func (r DailyNutritionRow) Rounded() DailyNutrition {
	return DailyNutrition{
		Date:     r.Date,
		Calories: int(math.Round(r.Calories)),
		ProteinG: Round1(r.ProteinG),
		CarbsG:   Round1(r.CarbsG),
		FatG:     Round1(r.FatG),
	}
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// DaySummary is one day's intake against the owner's goal.
type DaySummary struct {
	Date      string         `json:"date"`
	Intake    DailyNutrition `json:"intake"`
	Burned    *float64       `json:"calories_burned"`
	Goal      Macros         `json:"goal"`
	Remaining DailyNutrition `json:"remaining"`
	Entries   int            `json:"entries"`
}
