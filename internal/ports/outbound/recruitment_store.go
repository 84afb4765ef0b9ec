// Package outbound contains the secondary/outbound ports.
// These interfaces are implemented by infrastructure adapters.
package outbound

import (
	"context"

	"github.com/archon-research/recruitment/internal/domain/entity"
)

// RecruitmentStore owns offers and applications and enforces their invariants.
// Failures are reported with the error kinds in the entity package
// (ErrInvalidArgument, ErrAlreadyExists, ErrNotFound). A failed operation
// leaves no visible side effect.
type RecruitmentStore interface {
	// CreateOffer stores a new offer with the caller-supplied application count.
	CreateOffer(ctx context.Context, offer entity.Offer) error

	// GetOffer returns the offer with exactly the given job title.
	GetOffer(ctx context.Context, jobTitle string) (entity.Offer, error)

	// ListOffers returns every offer in insertion order.
	ListOffers(ctx context.Context) ([]entity.Offer, error)

	// CreateApplication stores a new application and increments the
	// referenced offer's application count in the same atomic step.
	CreateApplication(ctx context.Context, app entity.Application) error

	// UpdateApplicationStatus replaces the stored application identified by
	// (JobTitle, CandidateEmail) and returns the status it had before.
	UpdateApplicationStatus(ctx context.Context, app entity.Application) (entity.Status, error)

	// GetApplication returns the application matching both key components exactly.
	GetApplication(ctx context.Context, jobTitle, candidateEmail string) (entity.Application, error)

	// ListApplicationsForOffer returns applications whose job title matches
	// case-insensitively.
	ListApplicationsForOffer(ctx context.Context, jobTitle string) ([]entity.Application, error)

	// CountApplicationsForOffer counts applications whose job title matches
	// case-insensitively.
	CountApplicationsForOffer(ctx context.Context, jobTitle string) (int64, error)

	// CountAllApplications counts applications across all offers.
	CountAllApplications(ctx context.Context) (int64, error)

	// HealthCheck verifies the store is operational.
	HealthCheck(ctx context.Context) error
}
