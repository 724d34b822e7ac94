package messagequeue

// IncidentEventPayload is the schema for incidents.{status} messages.
type IncidentEventPayload struct {
	IncidentID   string            `json:"incident_id"`
	RunID        string            `json:"run_id,omitempty"`
	Environment  string            `json:"environment,omitempty"`
	Actor        string            `json:"actor"`
	Decision     string            `json:"decision"`
	Status       string            `json:"status"`
	ExitCode     *int              `json:"exit_code,omitempty"`
	PostFailures string            `json:"post_failures,omitempty"`
	Timestamps   map[string]string `json:"timestamps,omitempty"`
}
