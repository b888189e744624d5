// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"
)

// jsonValue encodes v as a JSON string parameter.
func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return string(b), nil
}

// scanJSON decodes a json/jsonb column. NULL leaves dst untouched.
func scanJSON(src, dst interface{}) error {
	switch s := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(s, dst)
	case string:
		return json.Unmarshal([]byte(s), dst)
	default:
		return fmt.Errorf("cannot scan %T into json column", src)
	}
}

// JSONMap is a free-form JSON object column.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return jsonValue(map[string]interface{}(m))
}

func (m *JSONMap) Scan(src interface{}) error {
	return scanJSON(src, (*map[string]interface{})(m))
}

// StringList is a JSON array of strings.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return jsonValue([]string(l))
}

func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, (*[]string)(l))
}
