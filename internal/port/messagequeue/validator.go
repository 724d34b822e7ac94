package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects only need valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	if !strings.HasPrefix(subject, SubjectIncidentPrefix) {
		return nil
	}

	var p IncidentEventPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	if p.Status == "" {
		return errors.New("schema validation failed for " + subject + ": status is required")
	}
	if want := strings.TrimPrefix(subject, SubjectIncidentPrefix); p.Status != want {
		return fmt.Errorf("schema validation failed for %s: status %q does not match subject", subject, p.Status)
	}
	return nil
}
