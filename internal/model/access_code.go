package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
)

const (
	DefaultStartTime = "00:00"
	DefaultEndTime   = "23:59"

	// UnknownUsername is recorded for attempts whose PIN matches no code.
	UnknownUsername = "Unknown"
)

// AccessCode is a PIN together with the weekly window during which it opens the gate.
type AccessCode struct {
	PIN       string    `db:"pin" json:"pin"`
	Username  string    `db:"username" json:"username"`
	Days      Weekdays  `db:"days" json:"days"`
	StartTime string    `db:"start_time" json:"startTime"`
	EndTime   string    `db:"end_time" json:"endTime"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// Weekdays holds allowed days, 0 = Sunday through 6 = Saturday.
type Weekdays []int

// Contains reports whether day is one of the allowed weekdays.
func (w Weekdays) Contains(day int) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

// Normalized returns the days sorted without duplicates.
func (w Weekdays) Normalized() Weekdays {
	seen := make(map[int]bool, len(w))
	out := make(Weekdays, 0, len(w))
	for _, d := range w {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out
}

// MarshalJSON renders a nil set as [] rather than null.
func (w Weekdays) MarshalJSON() ([]byte, error) {
	if w == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int(w))
}

// Value encodes the days as an array literal ({0,1,2}), accepted by a postgres
// INTEGER[] column and stored verbatim by sqlite.
func (w Weekdays) Value() (driver.Value, error) {
	arr := make(pq.Int64Array, len(w))
	for i, d := range w {
		arr[i] = int64(d)
	}
	return arr.Value()
}

func (w *Weekdays) Scan(src any) error {
	var arr pq.Int64Array
	if err := arr.Scan(src); err != nil {
		return fmt.Errorf("scan weekdays: %w", err)
	}
	days := make(Weekdays, len(arr))
	for i, d := range arr {
		days[i] = int(d)
	}
	*w = days
	return nil
}

// CodeRecord is the lenient wire form of an access code. It accepts every
// field name that has been used for stored or submitted codes; Normalize
// maps it onto the canonical AccessCode.
type CodeRecord struct {
	PIN        flexString `json:"pin"`
	Username   *string    `json:"username"`
	User       *string    `json:"user"`
	Days       []int      `json:"days"`
	StartTime  *string    `json:"startTime"`
	StartSnake *string    `json:"start_time"`
	Start      *string    `json:"start"`
	EndTime    *string    `json:"endTime"`
	EndSnake   *string    `json:"end_time"`
	End        *string    `json:"end"`
}

// Normalize applies field fallbacks and defaults.
func (r CodeRecord) Normalize() AccessCode {
	code := AccessCode{
		PIN:       strings.TrimSpace(string(r.PIN)),
		Username:  firstNonEmpty("", r.Username, r.User),
		Days:      Weekdays(r.Days),
		StartTime: firstNonEmpty(DefaultStartTime, r.StartTime, r.StartSnake, r.Start),
		EndTime:   firstNonEmpty(DefaultEndTime, r.EndTime, r.EndSnake, r.End),
	}
	if code.Days == nil {
		code.Days = Weekdays{}
	}
	return code
}

// UnmarshalJSON reads any historical field naming into the canonical form.
func (c *AccessCode) UnmarshalJSON(data []byte) error {
	var rec CodeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*c = rec.Normalize()
	return nil
}

func firstNonEmpty(def string, candidates ...*string) string {
	for _, c := range candidates {
		if c != nil && strings.TrimSpace(*c) != "" {
			return strings.TrimSpace(*c)
		}
	}
	return def
}

// flexString decodes either a JSON string or a JSON number.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("pin must be a string or number")
	}
	*s = flexString(num.String())
	return nil
}

// DefaultSeedCode is written to an empty file store on first start.
func DefaultSeedCode() AccessCode {
	return AccessCode{
		PIN:       "7777",
		Username:  "Carlos Mendoza",
		Days:      Weekdays{0, 1, 2, 3, 4, 5, 6},
		StartTime: DefaultStartTime,
		EndTime:   DefaultEndTime,
	}
}

// CodePatch holds the fields present in a partial update. Nil means "keep".
type CodePatch struct {
	Username  *string
	Days      []int
	StartTime *string
	EndTime   *string
}

// Patch returns only the fields the record actually carries, resolving
// legacy names the same way Normalize does. The pin is never part of a patch.
func (r CodeRecord) Patch() CodePatch {
	return CodePatch{
		Username:  firstPresent(r.Username, r.User),
		Days:      r.Days,
		StartTime: firstPresent(r.StartTime, r.StartSnake, r.Start),
		EndTime:   firstPresent(r.EndTime, r.EndSnake, r.End),
	}
}

func firstPresent(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil {
			v := strings.TrimSpace(*c)
			return &v
		}
	}
	return nil
}
