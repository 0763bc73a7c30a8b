package errors

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// FormatForCLI formats an error for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	ke, ok := as(err)
	if !ok {
		ke = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", ke.Message)
	if ke.Cause != nil && ke.Cause.Error() != ke.Message {
		fmt.Fprintf(&sb, "  Cause: %s\n", ke.Cause)
	}
	if ke.Suggestion != "" {
		fmt.Fprintf(&sb, "  Hint: %s\n", ke.Suggestion)
	}
	fmt.Fprintf(&sb, "  Code: %s\n", ke.Code)

	return sb.String()
}

type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
}

// FormatJSON returns a JSON representation of the error.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	ke, ok := as(err)
	if !ok {
		ke = Wrap(ErrCodeInternal, err)
	}

	je := jsonError{
		Code:       ke.Code,
		Message:    ke.Message,
		Category:   string(ke.Category),
		Severity:   string(ke.Severity),
		Details:    ke.Details,
		Suggestion: ke.Suggestion,
	}
	if ke.Cause != nil {
		je.Cause = ke.Cause.Error()
	}

	return json.Marshal(je)
}

// FormatForLog returns slog attributes describing err.
func FormatForLog(err error) []any {
	if err == nil {
		return nil
	}

	ke, ok := as(err)
	if !ok {
		return []any{slog.String("error", err.Error())}
	}

	attrs := []any{
		slog.String("error_code", ke.Code),
		slog.String("message", ke.Message),
		slog.String("severity", string(ke.Severity)),
	}
	if ke.Cause != nil {
		attrs = append(attrs, slog.String("cause", ke.Cause.Error()))
	}

	keys := make([]string, 0, len(ke.Details))
	for k := range ke.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, ke.Details[k]))
	}

	return attrs
}
