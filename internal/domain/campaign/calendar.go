package campaign

import "time"

// MonthRef names a calendar month.
type MonthRef struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// Calendar is a month view. Weeks start on Monday and days outside the
// month are 0.
type Calendar struct {
	Year      int      `json:"year"`
	Month     int      `json:"month"`
	MonthName string   `json:"month_name"`
	Weeks     [][]int  `json:"weeks"`
	Previous  MonthRef `json:"previous"`
	Next      MonthRef `json:"next"`
	Events    []Event  `json:"events"`
}

// BuildCalendar lays out month and attaches events.
func BuildCalendar(year int, month time.Month, events []Event) Calendar {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()
	offset := (int(first.Weekday()) + 6) % 7

	var weeks [][]int
	week := make([]int, 7)
	col := offset
	for day := 1; day <= days; day++ {
		week[col] = day
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = make([]int, 7)
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}

	prev := first.AddDate(0, -1, 0)
	next := first.AddDate(0, 1, 0)
	if events == nil {
		events = []Event{}
	}

	return Calendar{
		Year:      year,
		Month:     int(month),
		MonthName: month.String(),
		Weeks:     weeks,
		Previous:  MonthRef{Year: prev.Year(), Month: prev.Month()},
		Next:      MonthRef{Year: next.Year(), Month: next.Month()},
		Events:    events,
	}
}
