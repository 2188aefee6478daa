package provider

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// CountTokens estimates the token count of text. Uses the cl100k_base
// encoding; falls back to a bytes/4 estimate if the encoding data is
// unavailable.
func CountTokens(text string) int {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})

	if encoding == nil {
		return len(text) / 4
	}
	return len(encoding.Encode(text, nil, nil))
}

// TruncateToBudget trims text to roughly budget tokens, cutting at a
// line boundary where possible. A zero or negative budget returns text
// unchanged.
func TruncateToBudget(text string, budget int) string {
	if budget <= 0 || CountTokens(text) <= budget {
		return text
	}

	lines := strings.Split(text, "\n")
	var kept []string
	used := 0
	for _, line := range lines {
		cost := CountTokens(line) + 1
		if used+cost > budget {
			break
		}
		kept = append(kept, line)
		used += cost
	}
	if len(kept) == 0 && len(lines) > 0 {
		// Single oversized line: hard character cut proportional to budget.
		line := lines[0]
		approx := budget * 4
		if approx < len(line) {
			line = line[:approx]
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n") + "\n[... truncated for length ...]"
}
