package model

import (
	"fmt"
	"strings"
)

// Category groups tasks by area of life. The set is closed.
type Category string

const (
	CategoryWork      Category = "work"
	CategoryPersonal  Category = "personal"
	CategoryEducation Category = "education"
	CategoryHealth    Category = "health"
	CategoryFinance   Category = "finance"
	CategoryOther     Category = "other"
)

// Categories lists every category in declaration order.
var Categories = []Category{
	CategoryWork,
	CategoryPersonal,
	CategoryEducation,
	CategoryHealth,
	CategoryFinance,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", raw)
	}
	return c, nil
}
