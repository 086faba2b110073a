package analysis_engine

import (
	"encoding/json"
	"strings"
)

const fenceOpener = "```json"

// RecoverJSON pulls a JSON object out of a raw model reply. Replies are
// requested in JSON mode but arrive with preambles, markdown fences or
// trailing commentary often enough that a staged recovery is needed:
//
//  1. strict parse of the whole text,
//  2. strict parse of the first ```json fenced block,
//  3. strict parse of the substring between the first '{' and the last '}'.
//
// It never fails; an empty map signals total recovery failure and callers
// must treat it as "proceed with empty defaults". Step 3 can be fooled by
// unrelated braces in prose; that is an accepted limitation.
func RecoverJSON(raw string) map[string]any {
	if m, ok := tryParse(strings.TrimSpace(raw)); ok {
		return m
	}

	if start := strings.Index(raw, fenceOpener); start != -1 {
		rest := raw[start+len(fenceOpener):]
		if end := strings.Index(rest, "```"); end != -1 {
			if m, ok := tryParse(strings.TrimSpace(rest[:end])); ok {
				return m
			}
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end > start {
		if m, ok := tryParse(raw[start : end+1]); ok {
			return m
		}
	}

	return map[string]any{}
}

func tryParse(s string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, false
	}
	if m == nil {
		// "null" parses successfully but carries nothing usable.
		return nil, false
	}
	return m, true
}
