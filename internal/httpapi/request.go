package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

var jsonNull = []byte("null")

// flexInt accepts a JSON number or a numeric string. Anything else decodes
// to zero.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	*f = 0
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexInt(math.Trunc(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*f = flexInt(math.Trunc(v))
		}
	}
	return nil
}

// strictInt accepts a JSON integer or an integer string and rejects
// anything else.
type strictInt int

func (n *strictInt) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err == nil {
		*n = strictInt(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("integer %s: %w", data, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("integer %q: %w", s, err)
	}
	*n = strictInt(v)
	return nil
}

// weekdays is a list of weekday numbers given as ints or numeric strings.
type weekdays []int

func (d *weekdays) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]int, 0, len(raw))
	for _, item := range raw {
		var n int
		if err := json.Unmarshal(item, &n); err == nil {
			out = append(out, n)
			continue
		}
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return fmt.Errorf("weekday %s: %w", item, err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("weekday %q: %w", s, err)
		}
		out = append(out, n)
	}
	*d = out
	return nil
}

// optDate is a YYYY-MM-DD date where null and "" mean absent.
type optDate struct {
	date *civil.Date
}

func (o *optDate) UnmarshalJSON(data []byte) error {
	o.date = nil
	if bytes.Equal(data, jsonNull) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return err
	}
	o.date = &d
	return nil
}

// timeLayouts are the timestamp forms accepted in request bodies.
var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

// optTime is a timestamp where null and "" mean absent. Values without a
// zone are read as UTC.
type optTime struct {
	at *time.Time
}

func (o *optTime) UnmarshalJSON(data []byte) error {
	o.at = nil
	if bytes.Equal(data, jsonNull) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			o.at = &t
			return nil
		}
	}
	return fmt.Errorf("unsupported time %q", s)
}

// optional tells a field sent as null apart from one left out.
type optional[T any] struct {
	set   bool
	value *T
}

func (o *optional[T]) UnmarshalJSON(data []byte) error {
	o.set = true
	o.value = nil
	if bytes.Equal(data, jsonNull) {
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.value = &v
	return nil
}

// queryDate reads an optional YYYY-MM-DD query parameter.
func queryDate(w http.ResponseWriter, r *http.Request, name string) (*civil.Date, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, true
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid "+name+" parameter")
		return nil, false
	}
	return &d, true
}

// queryInt reads an optional integer query parameter, returning def when
// it is absent.
func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid "+name+" parameter")
		return 0, false
	}
	return n, true
}
