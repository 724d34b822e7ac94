// Package messagequeue defines the lifecycle event publishing port.
package messagequeue

import "context"

// Publisher is the port interface for publishing incident lifecycle events.
type Publisher interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close shuts down the connection.
	Close() error
}

// Subject prefix for incident lifecycle events: incidents.{status}.
const SubjectIncidentPrefix = "incidents."

// SubjectIncident returns the subject for an incident status.
func SubjectIncident(status string) string {
	return SubjectIncidentPrefix + status
}
