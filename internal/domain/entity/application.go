package entity

import (
	"encoding/json"
	"fmt"
)

// Status is the hiring stage of an application.
// Any status may move to any other; no transition graph is enforced.
type Status string

// Status constants.
const (
	StatusApplied  Status = "APPLIED"
	StatusInvited  Status = "INVITED"
	StatusRejected Status = "REJECTED"
	StatusHired    Status = "HIRED"
)

// AllStatuses lists every known status in pipeline order.
var AllStatuses = []Status{StatusApplied, StatusInvited, StatusRejected, StatusHired}

// ParseStatus converts a string to a Status. The match is exact.
func ParseStatus(s string) (Status, error) {
	for _, status := range AllStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// UnmarshalJSON rejects unknown statuses. An empty string is kept as-is.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status must be a string: %w", err)
	}
	if raw == "" {
		*s = ""
		return nil
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ApplicationKey is the composite identity of an application.
type ApplicationKey struct {
	JobTitle       string
	CandidateEmail string
}

func (k ApplicationKey) String() string {
	return k.JobTitle + "_" + k.CandidateEmail
}

// Application is a candidate's submission against an offer.
type Application struct {
	JobTitle       string `json:"jobTitle"`
	CandidateEmail string `json:"candidateEmail"`
	ResumeText     string `json:"resumeText"`
	Status         Status `json:"status"`
}

// NewApplication creates a new Application with validation.
func NewApplication(jobTitle, candidateEmail, resumeText string, status Status) (*Application, error) {
	a := &Application{
		JobTitle:       jobTitle,
		CandidateEmail: candidateEmail,
		ResumeText:     resumeText,
		Status:         status,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Key returns the composite identity of the application.
func (a *Application) Key() ApplicationKey {
	return ApplicationKey{JobTitle: a.JobTitle, CandidateEmail: a.CandidateEmail}
}

// Validate checks the required fields in a fixed order: job title first,
// then candidate email. The first failing rule is reported.
func (a *Application) Validate() error {
	if a.JobTitle == "" {
		return fmt.Errorf("%w: job title is mandatory", ErrInvalidArgument)
	}
	if a.CandidateEmail == "" {
		return fmt.Errorf("%w: candidate email is mandatory", ErrInvalidArgument)
	}
	return nil
}
