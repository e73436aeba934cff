// Package jsonutil tolerates the loosely typed JSON that language models
// produce in tool-call arguments.
package jsonutil

import (
	"encoding/json"
	"fmt"
)

// FlexibleString converts a raw JSON value to a string. Models sometimes
// emit numbers or booleans where the tool schema asks for a string; those
// are rendered rather than rejected. Null and empty raw values become "".
func FlexibleString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%g", n)
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return fmt.Sprintf("%t", b)
	}

	return string(raw)
}
