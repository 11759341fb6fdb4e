// Step input parsers. A parse failure is always recoverable: the manager
// re-issues the same prompt and the session stays on the current step.
package conversation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/go-calendar-backend/internal/domain"
)

// ErrParse wraps every step-level validation failure. Callers can match it
// with errors.Is and show err.Error() to the user verbatim.
var ErrParse = errors.New("invalid input")

// Keywords recognized at any step of any flow, case-insensitive.
const (
	cancelKeyword = "cancel"
	skipKeyword   = "skip"
)

// parseStep validates raw input against the step's kind and returns the
// normalized value to store.
func parseStep(step Step, raw string) (string, error) {
	s := strings.TrimSpace(raw)

	switch step.Kind {
	case KindText:
		if s == "" {
			return "", fmt.Errorf("%w: a non-empty value is required", ErrParse)
		}
		return s, nil

	case KindDate:
		if _, err := time.Parse(domain.DateLayout, s); err != nil {
			return "", fmt.Errorf("%w: date must look like 2025-11-03", ErrParse)
		}
		return s, nil

	case KindTime:
		if _, err := time.Parse(domain.TimeLayout, s); err != nil {
			return "", fmt.Errorf("%w: time must look like 14:30", ErrParse)
		}
		return s, nil

	case KindIdentity:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			return "", fmt.Errorf("%w: user ID must be a positive number", ErrParse)
		}
		return strconv.FormatInt(n, 10), nil

	case KindEventID:
		if _, err := uuid.Parse(s); err != nil {
			return "", fmt.Errorf("%w: event ID must be a UUID", ErrParse)
		}
		return strings.ToLower(s), nil

	case KindOptionalText:
		if strings.EqualFold(s, skipKeyword) {
			return "", nil
		}
		return s, nil

	case KindYesNo:
		switch strings.ToLower(s) {
		case "yes", "y", "public":
			return "true", nil
		case "no", "n", "private":
			return "false", nil
		}
		return "", fmt.Errorf("%w: answer yes or no", ErrParse)
	}

	return "", fmt.Errorf("%w: unsupported step kind", ErrParse)
}

// isCancel reports whether the input is the in-dialog cancel keyword.
func isCancel(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), cancelKeyword)
}
