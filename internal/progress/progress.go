// Package progress derives hour totals, completion and streaks from a user's
// journal history. Aggregate is a pure function: the same set of entries, in
// any order, always yields the same Snapshot.
package progress

import (
	"sort"

	"github.com/shopspring/decimal"

	"interntrack/internal/models"
)

// TargetHours is the number of finished hours that completes the internship.
var TargetHours = decimal.NewFromInt(486)

var hundred = decimal.NewFromInt(100)

type Snapshot struct {
	TotalHours     decimal.Decimal `json:"total_hours"`
	DaysCompleted  int             `json:"days_completed"`
	CurrentStreak  int             `json:"current_streak"`
	LongestStreak  int             `json:"longest_streak"`
	IsCompleted    bool            `json:"is_completed"`
	TargetHours    decimal.Decimal `json:"target_hours"`
	Percentage     decimal.Decimal `json:"percentage"`
	RemainingHours decimal.Decimal `json:"remaining_hours"`
}

// Aggregate computes the snapshot. Only finished entries count toward hours,
// days and streaks.
func Aggregate(entries []models.JournalEntry) Snapshot {
	finished := make([]models.JournalEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsFinished() {
			finished = append(finished, e)
		}
	}
	sort.SliceStable(finished, func(i, j int) bool { return finished[i].Date.Before(finished[j].Date) })

	total := decimal.Zero
	for _, e := range finished {
		total = total.Add(e.Hours)
	}
	current, longest := streaks(finished)

	return Snapshot{
		TotalHours:     total,
		DaysCompleted:  len(finished),
		CurrentStreak:  current,
		LongestStreak:  longest,
		IsCompleted:    IsCompleted(total),
		TargetHours:    TargetHours,
		Percentage:     Percentage(total),
		RemainingHours: Remaining(total),
	}
}

// streaks walks finished entries in date order. A run grows when an entry
// falls exactly one day after the previous one and restarts at 1 otherwise.
func streaks(finished []models.JournalEntry) (current, longest int) {
	var prev models.Date
	for i, e := range finished {
		switch {
		case i == 0:
			current = 1
		case e.Date.Equal(prev):
			// one entry per day is enforced by the store; tolerate duplicates anyway
		case e.Date.Equal(prev.AddDays(1)):
			current++
		default:
			current = 1
		}
		if current > longest {
			longest = current
		}
		prev = e.Date
	}
	return current, longest
}

func IsCompleted(total decimal.Decimal) bool {
	return total.GreaterThanOrEqual(TargetHours)
}

// Percentage is total/target as a percentage, capped at 100 and rounded to
// one decimal place.
func Percentage(total decimal.Decimal) decimal.Decimal {
	pct := total.Div(TargetHours).Mul(hundred).Round(1)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

func Remaining(total decimal.Decimal) decimal.Decimal {
	rem := TargetHours.Sub(total)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}
