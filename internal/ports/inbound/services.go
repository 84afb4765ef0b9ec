// Package inbound contains the primary/inbound ports.
// These interfaces define the use cases that the application exposes.
package inbound

import (
	"context"

	"github.com/archon-research/recruitment/internal/domain/entity"
)

// StatusChange is the outcome of a successful status update.
type StatusChange struct {
	Application    entity.Application `json:"application"`
	PreviousStatus entity.Status      `json:"previousStatus"`
}

// RecruitmentService defines the primary use cases for offers and applications.
// Inbound adapters (HTTP handlers, CLI) call these methods.
type RecruitmentService interface {
	CreateOffer(ctx context.Context, offer entity.Offer) error
	GetOffer(ctx context.Context, jobTitle string) (entity.Offer, error)
	ListOffers(ctx context.Context) ([]entity.Offer, error)
	ListApplicationsForOffer(ctx context.Context, jobTitle string) ([]entity.Application, error)
	CountApplicationsForOffer(ctx context.Context, jobTitle string) (int64, error)

	CreateApplication(ctx context.Context, app entity.Application) error
	// UpdateApplicationStatus replaces the stored application and notifies
	// interested parties of the transition. Notification failures are not
	// returned.
	UpdateApplicationStatus(ctx context.Context, app entity.Application) (StatusChange, error)
	GetApplication(ctx context.Context, jobTitle, candidateEmail string) (entity.Application, error)
	CountAllApplications(ctx context.Context) (int64, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}
