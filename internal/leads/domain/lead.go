package domain

import "github.com/google/uuid"

// Lead is the snapshot of a lead used by question drafting, summaries, and
// the CRM handoff. The persistence layer carries the full record; this is
// the part the qualification flow needs.
type Lead struct {
	ID       uuid.UUID
	Name     string
	Email    string
	Phone    string
	Company  string
	JobTitle string
	Website  string
	Message  string
}
