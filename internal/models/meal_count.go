package models

import (
	"github.com/uptrace/bun"
)

// MealCount is the number of tickets issued for a department on a given day.
type MealCount struct {
	bun.BaseModel `bun:"table:meal_counts"`

	ID         int64  `bun:"id,pk,autoincrement" json:"-"`
	Department string `bun:"department,notnull,unique:meal_counts_department_day" json:"department"`
	Day        string `bun:"day,notnull,unique:meal_counts_department_day" json:"day"`
	Count      int    `bun:"count,notnull" json:"count"`
}
