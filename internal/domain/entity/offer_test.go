package entity

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewOffer(t *testing.T) {
	tests := []struct {
		name        string
		jobTitle    string
		wantErr     bool
		errContains string
	}{
		{
			name:     "valid offer",
			jobTitle: "Senior Manager",
		},
		{
			name:        "empty job title",
			jobTitle:    "",
			wantErr:     true,
			errContains: "job title is mandatory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offer, err := NewOffer(tt.jobTitle, time.Now())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error containing %q, got %q", tt.errContains, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if offer.ApplicationCount != 0 {
				t.Errorf("expected ApplicationCount=0, got %d", offer.ApplicationCount)
			}
		})
	}
}

func TestOffer_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantStart time.Time
		wantCount int64
		wantErr   bool
	}{
		{
			name:      "epoch millis",
			input:     `{"jobTitle":"Engineer","startDate":1493229767700,"numberOfApplications":3}`,
			wantStart: time.UnixMilli(1493229767700).UTC(),
			wantCount: 3,
		},
		{
			name:      "rfc3339 string",
			input:     `{"jobTitle":"Engineer","startDate":"2017-04-26T18:02:47Z"}`,
			wantStart: time.Date(2017, 4, 26, 18, 2, 47, 0, time.UTC),
		},
		{
			name:  "null start date",
			input: `{"jobTitle":"Engineer","startDate":null}`,
		},
		{
			name:  "missing start date",
			input: `{"jobTitle":"Engineer"}`,
		},
		{
			name:    "garbage start date",
			input:   `{"jobTitle":"Engineer","startDate":"tomorrow"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var offer Offer
			err := json.Unmarshal([]byte(tt.input), &offer)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if offer.JobTitle != "Engineer" {
				t.Errorf("expected jobTitle Engineer, got %q", offer.JobTitle)
			}
			if !offer.StartDate.Equal(tt.wantStart) {
				t.Errorf("expected startDate %v, got %v", tt.wantStart, offer.StartDate)
			}
			if offer.ApplicationCount != tt.wantCount {
				t.Errorf("expected count %d, got %d", tt.wantCount, offer.ApplicationCount)
			}
		})
	}
}

func TestOffer_MarshalJSON(t *testing.T) {
	offer := Offer{
		JobTitle:         "Engineer",
		StartDate:        time.UnixMilli(1493229767700),
		ApplicationCount: 2,
	}

	data, err := json.Marshal(offer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"jobTitle":"Engineer","startDate":1493229767700,"numberOfApplications":2}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}

	data, err = json.Marshal(Offer{JobTitle: "Engineer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), `"startDate":null`) {
		t.Errorf("expected null startDate for zero time, got %s", data)
	}
}
