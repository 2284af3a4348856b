package llm

import (
	"fmt"
	"strings"
)

// ExtractJSON pulls a JSON object or array out of a model response. Models
// routinely wrap JSON in markdown fences or surround it with prose, so the
// fenced block is tried first and brace matching second.
func ExtractJSON(response string) (string, error) {
	if strings.Contains(response, "```json") {
		parts := strings.Split(response, "```json")
		if len(parts) > 1 {
			fenced := parts[1]
			if end := strings.Index(fenced, "```"); end > 0 {
				if s := strings.TrimSpace(fenced[:end]); s != "" {
					return s, nil
				}
			}
		}
	}

	response = strings.TrimSpace(response)

	startBrace := strings.Index(response, "{")
	startBracket := strings.Index(response, "[")

	start := -1
	isArray := false
	if startBrace >= 0 && (startBracket < 0 || startBrace < startBracket) {
		start = startBrace
	} else if startBracket >= 0 {
		start = startBracket
		isArray = true
	}
	if start == -1 {
		return "", fmt.Errorf("no JSON object or array found in response")
	}

	var end int
	if isArray {
		end = strings.LastIndex(response, "]")
	} else {
		end = strings.LastIndex(response, "}")
	}
	if end == -1 || end <= start {
		return "", fmt.Errorf("no matching closing brace found in response")
	}

	return strings.TrimSpace(response[start : end+1]), nil
}
