package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Offer is a job posting, identified by its exact (case-sensitive) job title.
type Offer struct {
	JobTitle string

	// StartDate is opaque to the store and may be the zero time.
	StartDate time.Time

	// ApplicationCount is maintained incrementally by the store; it is never
	// recomputed from the application collection.
	ApplicationCount int64
}

// NewOffer creates a new Offer with validation.
func NewOffer(jobTitle string, startDate time.Time) (*Offer, error) {
	o := &Offer{JobTitle: jobTitle, StartDate: startDate}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Validate checks the fields required to create an offer.
func (o *Offer) Validate() error {
	if o.JobTitle == "" {
		return fmt.Errorf("%w: job title is mandatory", ErrInvalidArgument)
	}
	return nil
}

type offerJSON struct {
	JobTitle             string          `json:"jobTitle"`
	StartDate            json.RawMessage `json:"startDate,omitempty"`
	NumberOfApplications int64           `json:"numberOfApplications"`
}

// MarshalJSON encodes the start date as epoch milliseconds, or null when unset.
func (o Offer) MarshalJSON() ([]byte, error) {
	startDate := json.RawMessage("null")
	if !o.StartDate.IsZero() {
		startDate = json.RawMessage(strconv.FormatInt(o.StartDate.UnixMilli(), 10))
	}
	return json.Marshal(offerJSON{
		JobTitle:             o.JobTitle,
		StartDate:            startDate,
		NumberOfApplications: o.ApplicationCount,
	})
}

// UnmarshalJSON accepts the start date as epoch milliseconds or an RFC 3339 string.
func (o *Offer) UnmarshalJSON(data []byte) error {
	var raw offerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	startDate, err := parseStartDate(raw.StartDate)
	if err != nil {
		return err
	}

	*o = Offer{
		JobTitle:         raw.JobTitle,
		StartDate:        startDate,
		ApplicationCount: raw.NumberOfApplications,
	}
	return nil
}

func parseStartDate(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, fmt.Errorf("invalid startDate: %w", err)
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid startDate %q: expected RFC3339 or epoch millis", s)
		}
		return t.UTC(), nil
	}

	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid startDate %s: expected epoch millis", raw)
	}
	return time.UnixMilli(ms).UTC(), nil
}
