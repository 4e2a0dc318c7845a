package sqlstore

import (
	"database/sql"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

type scanner interface {
	Scan(dest ...any) error
}

// stamp normalises timestamps before they are bound. SQLite compares
// timestamps as text, so every stored value shares one offset and precision.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func nullStamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return stamp(*t)
}

// nullDate scans DATE columns, which postgres returns as time.Time and
// sqlite stores as YYYY-MM-DD text.
type nullDate struct {
	Date  civil.Date
	Valid bool
}

func (n *nullDate) Scan(src any) error {
	n.Date, n.Valid = civil.Date{}, false
	var raw string
	switch v := src.(type) {
	case nil:
		return nil
	case time.Time:
		n.Date, n.Valid = civil.DateOf(v), true
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
	if len(raw) > 10 {
		raw = raw[:10]
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return fmt.Errorf("scan date: %w", err)
	}
	n.Date, n.Valid = d, true
	return nil
}

func (n nullDate) ptr() *civil.Date {
	if !n.Valid {
		return nil
	}
	d := n.Date
	return &d
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time.UTC()
	return &t
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
