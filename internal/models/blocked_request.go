package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Record statuses
const (
	StatusDetected = "detected"
	StatusBlocked  = "blocked"
	StatusAllowed  = "allowed"
)

// DefaultRequestMethod is assigned when the reporter omits the method
const DefaultRequestMethod = "POST"

// ValidStatus reports whether s is one of the three record statuses
func ValidStatus(s string) bool {
	switch s {
	case StatusDetected, StatusBlocked, StatusAllowed:
		return true
	}
	return false
}

// BlockedRequest is one detected form submission reported by the extension
type BlockedRequest struct {
	ID             int64       `db:"id"`
	Timestamp      time.Time   `db:"timestamp"`
	TargetURL      string      `db:"target_url"`
	TargetHostname string      `db:"target_hostname"`
	SourceURL      string      `db:"source_url"`
	MatchedFields  FieldList   `db:"matched_fields"`
	MatchedValues  FieldValues `db:"matched_values"`
	RequestMethod  string      `db:"request_method"`
	Status         string      `db:"status"`
}

// FieldList holds the ordered form field names that triggered detection
type FieldList []string

// FieldValues holds captured field name to value pairs
type FieldValues map[string]string

// Scan implements sql.Scanner for the JSON-encoded TEXT column
func (fl *FieldList) Scan(value interface{}) error {
	if value == nil {
		*fl = FieldList{}
		return nil
	}

	bytes, err := columnBytes(value)
	if err != nil {
		return err
	}

	var l []string
	if err := json.Unmarshal(bytes, &l); err != nil {
		return err
	}
	*fl = FieldList(l)
	return nil
}

// Value implements driver.Valuer
func (fl FieldList) Value() (driver.Value, error) {
	if fl == nil {
		fl = FieldList{}
	}
	b, err := json.Marshal([]string(fl))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for the JSON-encoded TEXT column
func (fv *FieldValues) Scan(value interface{}) error {
	if value == nil {
		*fv = make(FieldValues)
		return nil
	}

	bytes, err := columnBytes(value)
	if err != nil {
		return err
	}

	var m map[string]string
	if err := json.Unmarshal(bytes, &m); err != nil {
		return err
	}
	*fv = FieldValues(m)
	return nil
}

// Value implements driver.Valuer
func (fv FieldValues) Value() (driver.Value, error) {
	if fv == nil {
		fv = make(FieldValues)
	}
	b, err := json.Marshal(map[string]string(fv))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// columnBytes normalizes TEXT column values across the sqlite and pgx drivers
func columnBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, ErrBadRequest
	}
}
