package model

import (
	"encoding/json"
	"time"
)

// AccessLogEntry records one attempt to open the gate. Timestamp is a UTC instant;
// conversion to the display zone happens when entries are read.
type AccessLogEntry struct {
	ID           string    `db:"id" json:"id"`
	Timestamp    time.Time `db:"occurred_at" json:"timestamp"`
	PIN          string    `db:"pin" json:"pin"`
	Username     string    `db:"username" json:"username"`
	Success      bool      `db:"success" json:"success"`
	ErrorMessage *string   `db:"error_message" json:"errorMessage"`
}

// In returns a copy of the entry with its timestamp expressed in loc.
func (e AccessLogEntry) In(loc *time.Location) AccessLogEntry {
	e.Timestamp = e.Timestamp.In(loc)
	return e
}

// UnmarshalJSON accepts entries written before success/errorMessage existed
// and the older "user" field name.
func (e *AccessLogEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID           string    `json:"id"`
		Timestamp    time.Time `json:"timestamp"`
		PIN          string    `json:"pin"`
		Username     *string   `json:"username"`
		User         *string   `json:"user"`
		Success      *bool     `json:"success"`
		ErrorMessage *string   `json:"errorMessage"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = AccessLogEntry{
		ID:           raw.ID,
		Timestamp:    raw.Timestamp.UTC(),
		PIN:          raw.PIN,
		Username:     firstNonEmpty(UnknownUsername, raw.Username, raw.User),
		Success:      raw.Success == nil || *raw.Success,
		ErrorMessage: raw.ErrorMessage,
	}
	return nil
}
