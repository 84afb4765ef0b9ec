// Package memory provides in-memory implementations of the outbound ports.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/archon-research/recruitment/internal/domain/entity"
	"github.com/archon-research/recruitment/internal/ports/outbound"
)

// Compile-time check that Store implements outbound.RecruitmentStore
var _ outbound.RecruitmentStore = (*Store)(nil)

// Store is an in-memory implementation of the outbound.RecruitmentStore port.
//
// A single RWMutex guards both collections. Every check-then-act sequence
// (duplicate check then insert, offer lookup then counter increment, lookup
// then replace) runs under the write lock, so concurrent writers cannot both
// pass a uniqueness check or lose a counter increment.
//
// Records are stored and returned by value; callers never share memory with
// the store. Data is lost on process restart.
type Store struct {
	mu sync.RWMutex

	offers     map[string]*entity.Offer
	offerOrder []string

	applications     map[entity.ApplicationKey]*entity.Application
	applicationOrder []entity.ApplicationKey

	logger *slog.Logger
}

// NewStore creates a new, empty in-memory store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		offers:       make(map[string]*entity.Offer),
		applications: make(map[entity.ApplicationKey]*entity.Application),
		logger:       logger.With("component", "memory-store"),
	}
}

// CreateOffer stores a new offer. The supplied application count is kept as-is.
func (s *Store) CreateOffer(ctx context.Context, offer entity.Offer) error {
	s.logger.Debug("createOffer called", "jobTitle", offer.JobTitle)

	if err := offer.Validate(); err != nil {
		s.logger.Warn("createOffer rejected", "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.offers[offer.JobTitle]; exists {
		s.logger.Warn("createOffer rejected, offer already exists", "jobTitle", offer.JobTitle)
		return fmt.Errorf("%w: offer %q", entity.ErrAlreadyExists, offer.JobTitle)
	}

	stored := offer
	s.offers[offer.JobTitle] = &stored
	s.offerOrder = append(s.offerOrder, offer.JobTitle)

	s.logger.Debug("offer created", "jobTitle", offer.JobTitle, "applicationCount", offer.ApplicationCount)
	return nil
}

// GetOffer returns the offer whose job title matches exactly.
func (s *Store) GetOffer(ctx context.Context, jobTitle string) (entity.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offer, ok := s.offers[jobTitle]
	if !ok {
		s.logger.Debug("getOffer found no offer", "jobTitle", jobTitle)
		return entity.Offer{}, fmt.Errorf("%w: no offer for job title %q", entity.ErrNotFound, jobTitle)
	}
	return *offer, nil
}

// ListOffers returns all offers in insertion order.
func (s *Store) ListOffers(ctx context.Context) ([]entity.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.offerOrder) == 0 {
		return nil, fmt.Errorf("%w: no offers", entity.ErrNotFound)
	}

	result := make([]entity.Offer, 0, len(s.offerOrder))
	for _, title := range s.offerOrder {
		result = append(result, *s.offers[title])
	}
	return result, nil
}

// CreateApplication stores a new application and increments the offer's count.
// Checks run in a fixed order: job title, candidate email, offer existence,
// then duplicate key.
func (s *Store) CreateApplication(ctx context.Context, app entity.Application) error {
	s.logger.Debug("createApplication called", "key", app.Key().String())

	if err := app.Validate(); err != nil {
		s.logger.Warn("createApplication rejected", "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	offer, ok := s.offers[app.JobTitle]
	if !ok {
		s.logger.Warn("createApplication rejected, offer does not exist", "jobTitle", app.JobTitle)
		return fmt.Errorf("%w: no offer for job title %q", entity.ErrNotFound, app.JobTitle)
	}

	key := app.Key()
	if _, exists := s.applications[key]; exists {
		s.logger.Warn("createApplication rejected, application already exists", "key", key.String())
		return fmt.Errorf("%w: application %q", entity.ErrAlreadyExists, key.String())
	}

	stored := app
	s.applications[key] = &stored
	s.applicationOrder = append(s.applicationOrder, key)
	offer.ApplicationCount++

	s.logger.Debug("application created", "key", key.String(), "applicationCount", offer.ApplicationCount)
	return nil
}

// UpdateApplicationStatus replaces the whole stored record and returns the
// status it held before.
func (s *Store) UpdateApplicationStatus(ctx context.Context, app entity.Application) (entity.Status, error) {
	key := app.Key()
	s.logger.Debug("updateApplicationStatus called", "key", key.String(), "status", app.Status)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.applications[key]
	if !ok {
		s.logger.Debug("updateApplicationStatus found no application", "key", key.String())
		return "", fmt.Errorf("%w: application %q", entity.ErrNotFound, key.String())
	}

	previous := existing.Status
	stored := app
	s.applications[key] = &stored

	s.logger.Debug("application status changed", "key", key.String(), "from", previous, "to", app.Status)
	return previous, nil
}

// GetApplication returns the application matching both key components exactly.
func (s *Store) GetApplication(ctx context.Context, jobTitle, candidateEmail string) (entity.Application, error) {
	key := entity.ApplicationKey{JobTitle: jobTitle, CandidateEmail: candidateEmail}

	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.applications[key]
	if !ok {
		s.logger.Debug("getApplication found no application", "key", key.String())
		return entity.Application{}, fmt.Errorf("%w: application %q", entity.ErrNotFound, key.String())
	}
	return *app, nil
}

// ListApplicationsForOffer returns applications whose job title matches
// case-insensitively, in insertion order.
func (s *Store) ListApplicationsForOffer(ctx context.Context, jobTitle string) ([]entity.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []entity.Application
	for _, key := range s.applicationOrder {
		if strings.EqualFold(jobTitle, key.JobTitle) {
			result = append(result, *s.applications[key])
		}
	}

	if len(result) == 0 {
		s.logger.Debug("listApplicationsForOffer found no applications", "jobTitle", jobTitle)
		return nil, fmt.Errorf("%w: no applications for offer %q", entity.ErrNotFound, jobTitle)
	}
	return result, nil
}

// CountApplicationsForOffer counts applications whose job title matches
// case-insensitively.
func (s *Store) CountApplicationsForOffer(ctx context.Context, jobTitle string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, key := range s.applicationOrder {
		if strings.EqualFold(jobTitle, key.JobTitle) {
			count++
		}
	}

	if count == 0 {
		return 0, fmt.Errorf("%w: no applications for offer %q", entity.ErrNotFound, jobTitle)
	}
	return count, nil
}

// CountAllApplications returns the number of stored applications.
func (s *Store) CountAllApplications(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.applications) == 0 {
		return 0, fmt.Errorf("%w: no applications", entity.ErrNotFound)
	}
	return int64(len(s.applications)), nil
}

// HealthCheck verifies the store is operational.
func (s *Store) HealthCheck(ctx context.Context) error {
	// In-memory store is always healthy
	return nil
}
