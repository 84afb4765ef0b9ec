package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/archon-research/recruitment/internal/domain/entity"
	"github.com/archon-research/recruitment/internal/ports/inbound"
	"github.com/archon-research/recruitment/internal/ports/outbound"
)

// Compile-time check that RecruitmentService implements inbound.RecruitmentService
var _ inbound.RecruitmentService = (*RecruitmentService)(nil)

// TracerName is the instrumentation scope of the service spans.
const TracerName = "github.com/archon-research/recruitment/internal/application"

// RecruitmentConfig holds configuration for the RecruitmentService.
type RecruitmentConfig struct {
	// NotifyTimeout bounds a single notification delivery.
	NotifyTimeout time.Duration

	// Metrics records operation outcomes. Nil disables metrics.
	Metrics outbound.MetricsRecorder

	// Tracer creates spans around operations. Nil uses the global provider.
	Tracer trace.Tracer

	// Now returns the current time. Nil uses time.Now.
	Now func() time.Time

	// Logger is the structured logger.
	Logger *slog.Logger
}

// RecruitmentConfigDefaults returns default configuration.
func RecruitmentConfigDefaults() RecruitmentConfig {
	return RecruitmentConfig{
		NotifyTimeout: 5 * time.Second,
		Now:           time.Now,
		Logger:        slog.Default(),
	}
}

// RecruitmentService forwards offer and application use cases to the store
// and notifies interested parties of changes.
//
// Notifications are best-effort: they run after the store mutation has
// committed, on a context detached from the caller's cancellation, and
// failures are logged and counted but never returned.
type RecruitmentService struct {
	config   RecruitmentConfig
	store    outbound.RecruitmentStore
	notifier outbound.Notifier
	metrics  outbound.MetricsRecorder
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewRecruitmentService creates a new RecruitmentService.
func NewRecruitmentService(
	config RecruitmentConfig,
	store outbound.RecruitmentStore,
	notifier outbound.Notifier,
) (*RecruitmentService, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}

	defaults := RecruitmentConfigDefaults()
	if config.NotifyTimeout <= 0 {
		config.NotifyTimeout = defaults.NotifyTimeout
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}

	return &RecruitmentService{
		config:   config,
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		tracer:   tracer,
		logger:   config.Logger.With("component", "recruitment-service"),
	}, nil
}

// CreateOffer stores a new offer.
func (s *RecruitmentService) CreateOffer(ctx context.Context, offer entity.Offer) (err error) {
	ctx, finish := s.begin(ctx, "create_offer", attribute.String("job_title", offer.JobTitle))
	defer func() { finish(err) }()

	return s.store.CreateOffer(ctx, offer)
}

// GetOffer returns the offer with exactly the given job title.
func (s *RecruitmentService) GetOffer(ctx context.Context, jobTitle string) (offer entity.Offer, err error) {
	ctx, finish := s.begin(ctx, "get_offer", attribute.String("job_title", jobTitle))
	defer func() { finish(err) }()

	return s.store.GetOffer(ctx, jobTitle)
}

// ListOffers returns every offer.
func (s *RecruitmentService) ListOffers(ctx context.Context) (offers []entity.Offer, err error) {
	ctx, finish := s.begin(ctx, "list_offers")
	defer func() { finish(err) }()

	return s.store.ListOffers(ctx)
}

// ListApplicationsForOffer returns applications whose job title matches
// case-insensitively.
func (s *RecruitmentService) ListApplicationsForOffer(ctx context.Context, jobTitle string) (apps []entity.Application, err error) {
	ctx, finish := s.begin(ctx, "list_applications_for_offer", attribute.String("job_title", jobTitle))
	defer func() { finish(err) }()

	return s.store.ListApplicationsForOffer(ctx, jobTitle)
}

// CountApplicationsForOffer counts applications whose job title matches
// case-insensitively.
func (s *RecruitmentService) CountApplicationsForOffer(ctx context.Context, jobTitle string) (count int64, err error) {
	ctx, finish := s.begin(ctx, "count_applications_for_offer", attribute.String("job_title", jobTitle))
	defer func() { finish(err) }()

	return s.store.CountApplicationsForOffer(ctx, jobTitle)
}

// CreateApplication stores a new application and announces it.
func (s *RecruitmentService) CreateApplication(ctx context.Context, app entity.Application) (err error) {
	ctx, finish := s.begin(ctx, "create_application",
		attribute.String("job_title", app.JobTitle),
		attribute.String("status", string(app.Status)),
	)
	defer func() { finish(err) }()

	if err := s.store.CreateApplication(ctx, app); err != nil {
		return err
	}

	s.notify(ctx, outbound.NewApplicationCreatedEvent(app, s.config.Now()))
	return nil
}

// UpdateApplicationStatus replaces the stored application and publishes the
// status transition.
func (s *RecruitmentService) UpdateApplicationStatus(ctx context.Context, app entity.Application) (change inbound.StatusChange, err error) {
	ctx, finish := s.begin(ctx, "update_application_status",
		attribute.String("job_title", app.JobTitle),
		attribute.String("status", string(app.Status)),
	)
	defer func() { finish(err) }()

	previous, err := s.store.UpdateApplicationStatus(ctx, app)
	if err != nil {
		return inbound.StatusChange{}, err
	}

	s.logger.Info("application status change",
		"jobTitle", app.JobTitle,
		"candidateEmail", app.CandidateEmail,
		"from", previous,
		"to", app.Status,
	)
	s.metrics.RecordStatusChange(ctx, previous, app.Status)
	s.notify(ctx, outbound.NewStatusChangeEvent(app, previous, app.Status, s.config.Now()))

	return inbound.StatusChange{Application: app, PreviousStatus: previous}, nil
}

// GetApplication returns the application matching both key components exactly.
func (s *RecruitmentService) GetApplication(ctx context.Context, jobTitle, candidateEmail string) (app entity.Application, err error) {
	ctx, finish := s.begin(ctx, "get_application", attribute.String("job_title", jobTitle))
	defer func() { finish(err) }()

	return s.store.GetApplication(ctx, jobTitle, candidateEmail)
}

// CountAllApplications counts applications across all offers.
func (s *RecruitmentService) CountAllApplications(ctx context.Context) (count int64, err error) {
	ctx, finish := s.begin(ctx, "count_all_applications")
	defer func() { finish(err) }()

	return s.store.CountAllApplications(ctx)
}

// Ping verifies the backing store is reachable.
func (s *RecruitmentService) Ping(ctx context.Context) error {
	return s.store.HealthCheck(ctx)
}

// begin starts a span for an operation. The returned function ends it and
// records the outcome.
func (s *RecruitmentService) begin(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "recruitment."+operation, trace.WithAttributes(attrs...))

	return ctx, func(err error) {
		result := Outcome(err)
		span.SetAttributes(attribute.String("outcome", result))
		if result == OutcomeError {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.logger.Error("operation failed", "operation", operation, "error", err)
		}
		span.End()
		s.metrics.RecordOperation(ctx, operation, result, time.Since(start))
	}
}

// notify publishes an event without letting delivery affect the caller.
func (s *RecruitmentService) notify(ctx context.Context, event outbound.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.NotifyTimeout)
	defer cancel()

	err := s.notifier.Publish(ctx, event)
	s.metrics.RecordNotification(ctx, event.EventType(), err == nil)
	if err != nil {
		s.logger.Warn("failed to publish notification",
			"eventType", event.EventType(),
			"eventId", event.GetID().String(),
			"key", event.GetApplicationKey().String(),
			"error", err,
		)
	}
}

// Operation outcomes reported to metrics and spans.
const (
	OutcomeOK              = "ok"
	OutcomeInvalidArgument = "invalid_argument"
	OutcomeAlreadyExists   = "already_exists"
	OutcomeNotFound        = "not_found"
	OutcomeError           = "error"
)

// Outcome classifies an operation error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, entity.ErrInvalidArgument):
		return OutcomeInvalidArgument
	case errors.Is(err, entity.ErrAlreadyExists):
		return OutcomeAlreadyExists
	case errors.Is(err, entity.ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}

type noopMetrics struct{}

func (noopMetrics) RecordOperation(context.Context, string, string, time.Duration)   {}
func (noopMetrics) RecordStatusChange(context.Context, entity.Status, entity.Status) {}
func (noopMetrics) RecordNotification(context.Context, outbound.EventType, bool)     {}
