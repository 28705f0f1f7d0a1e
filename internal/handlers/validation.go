package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"gamebank/internal/money"
)

var errInvalidAmount = errors.New("invalid amount")
var errInvalidLimit = errors.New("invalid limit")

// parseAmount accepts a JSON number or a numeric string of whole units.
func parseAmount(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errInvalidAmount
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, errInvalidAmount
		}
	}
	amount, err := money.ParseAmount(text)
	if err != nil {
		return 0, errInvalidAmount
	}
	return amount, nil
}

// parseLimit reads an optional page size; empty means the service default.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > 100 {
		return 0, errInvalidLimit
	}
	return limit, nil
}
