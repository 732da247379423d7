package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringArray custom type for PostgreSQL text[]
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return "{" + stringArrayJoin(s) + "}", nil
}

func stringArrayJoin(arr []string) string {
	result := ""
	for i, v := range arr {
		if i > 0 {
			result += ","
		}
		result += "\"" + v + "\""
	}
	return result
}

func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return s.parsePostgresArray(string(v))
	case string:
		return s.parsePostgresArray(v)
	}
	return nil
}

func (s *StringArray) parsePostgresArray(str string) error {
	// Handle empty array
	if str == "{}" || str == "" {
		*s = []string{}
		return nil
	}

	// Remove outer braces
	str = str[1 : len(str)-1]

	// Parse elements
	var result []string
	var current string
	inQuotes := false

	for _, char := range str {
		switch char {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				result = append(result, current)
				current = ""
			} else {
				current += string(char)
			}
		default:
			current += string(char)
		}
	}

	if current != "" {
		result = append(result, current)
	}

	*s = result
	return nil
}

// Contains reports whether the array holds the given value
func (s StringArray) Contains(value string) bool {
	for _, v := range s {
		if v == value {
			return true
		}
	}
	return false
}

// PolygonRing is a GeoJSON-style polygon ring stored as JSONB.
// Each vertex is [lng, lat] — longitude first, matching GeoJSON coordinate order.
type PolygonRing [][2]float64

func (p PolygonRing) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func (p *PolygonRing) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan polygon ring: expected []byte, got %T", value)
	}
	return json.Unmarshal(bytes, p)
}

// DayHours describes one weekday's delivery window
type DayHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"` // "HH:MM", 24-hour, zero-padded
	End     string `json:"end"`   // "HH:MM", 24-hour, zero-padded
}

// OperatingHours maps lowercase weekday names ("monday".."sunday") to delivery windows.
// Stored as JSONB.
type OperatingHours map[string]DayHours

func (h OperatingHours) Value() (driver.Value, error) {
	if h == nil {
		return nil, nil
	}
	return json.Marshal(h)
}

func (h *OperatingHours) Scan(value interface{}) error {
	if value == nil {
		*h = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan operating hours: expected []byte, got %T", value)
	}
	return json.Unmarshal(bytes, h)
}
