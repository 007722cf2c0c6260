package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Hours is the duration label of a price option. Clients send either a number
// (2) or free text ("overnight"); numeric labels are written back as numbers.
type Hours string

// Float returns the numeric value of the label when it has one.
func (h Hours) Float() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(h)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (h Hours) MarshalJSON() ([]byte, error) {
	if f, ok := h.Float(); ok {
		return json.Marshal(f)
	}
	return json.Marshal(string(h))
}

func (h *Hours) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*h = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("hours: %w", err)
		}
		*h = Hours(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("hours must be a number or a string: %w", err)
		}
		*h = Hours(n.String())
	}
	return nil
}
