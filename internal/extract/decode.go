package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dvloznov/bankbuddy/internal/domain"
)

// DecodeDraft parses a raw model response into a Draft. Any deviation from
// the expected top-level shape fails with domain.ErrMalformedResponse and the
// whole statement is rejected; nothing partial comes out of here.
func DecodeDraft(rawText string) (*Draft, error) {
	clean := cleanModelJSON(rawText)

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return nil, fmt.Errorf("DecodeDraft: unmarshal JSON: %v: %w", err, domain.ErrMalformedResponse)
	}

	for _, key := range []string{"statement_date", "account_balance", "transactions"} {
		if _, ok := payload[key]; !ok {
			return nil, fmt.Errorf("DecodeDraft: missing key %q: %w", key, domain.ErrMalformedResponse)
		}
	}

	draft := &Draft{}

	switch v := payload["statement_date"].(type) {
	case nil:
	case string:
		s := strings.TrimSpace(v)
		if s != "" && !strings.EqualFold(s, "null") {
			draft.StatementDate = &s
		}
	default:
		return nil, fmt.Errorf("DecodeDraft: statement_date is %T, want string or null: %w", v, domain.ErrMalformedResponse)
	}

	switch v := payload["account_balance"].(type) {
	case nil:
	case float64:
		f := v
		draft.AccountBalance = &f
	case string:
		// Models occasionally quote the number; tolerate that one case.
		s := strings.TrimSpace(v)
		if s == "" || strings.EqualFold(s, "null") {
			break
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("DecodeDraft: account_balance %q is not numeric: %w", v, domain.ErrMalformedResponse)
		}
		draft.AccountBalance = &f
	default:
		return nil, fmt.Errorf("DecodeDraft: account_balance is %T, want number or null: %w", v, domain.ErrMalformedResponse)
	}

	txs, ok := payload["transactions"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("DecodeDraft: transactions is %T, want array: %w", payload["transactions"], domain.ErrMalformedResponse)
	}
	draft.Transactions = txs

	return draft, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk the model may
// emit despite instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Extra safety: if there's still junk around the JSON object,
	// try to keep only from the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = s[start : end+1]
			s = strings.TrimSpace(s)
		}
	}

	return s
}
