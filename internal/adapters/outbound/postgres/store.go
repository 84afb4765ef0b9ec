package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/archon-research/recruitment/internal/domain/entity"
	"github.com/archon-research/recruitment/internal/ports/outbound"
)

// Compile-time check that Store implements outbound.RecruitmentStore
var _ outbound.RecruitmentStore = (*Store)(nil)

// Querier is the subset of *pgxpool.Pool used outside transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// StoreConfig configures the Postgres store.
type StoreConfig struct {
	// QueryTimeout bounds every store operation. Zero disables the bound.
	QueryTimeout time.Duration

	Logger *slog.Logger
}

// StoreConfigDefaults returns the default store configuration.
func StoreConfigDefaults() StoreConfig {
	return StoreConfig{
		QueryTimeout: 5 * time.Second,
	}
}

// Store is a PostgreSQL implementation of the outbound.RecruitmentStore port.
//
// Offer identity and application identity are enforced by primary keys.
// CreateApplication locks the referenced offer row for the duration of its
// transaction, so the duplicate check, the insert and the counter increment
// are observed as one step.
type Store struct {
	db     Querier
	txm    outbound.TxManager
	config StoreConfig
	logger *slog.Logger
}

// NewStore creates a new PostgreSQL store.
func NewStore(db Querier, txm outbound.TxManager, config StoreConfig) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}
	if txm == nil {
		return nil, fmt.Errorf("transaction manager cannot be nil")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Store{
		db:     db,
		txm:    txm,
		config: config,
		logger: config.Logger.With("component", "postgres-store"),
	}, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.config.QueryTimeout)
}

// CreateOffer stores a new offer. The supplied application count is kept as-is.
func (s *Store) CreateOffer(ctx context.Context, offer entity.Offer) error {
	s.logger.Debug("createOffer called", "jobTitle", offer.JobTitle)

	if err := offer.Validate(); err != nil {
		s.logger.Warn("createOffer rejected", "error", err)
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.db.Exec(ctx, `
		INSERT INTO offers (job_title, start_date, number_of_applications)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_title) DO NOTHING
	`, offer.JobTitle, nullableTime(offer.StartDate), offer.ApplicationCount)
	if err != nil {
		return fmt.Errorf("failed to insert offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.Warn("createOffer rejected, offer already exists", "jobTitle", offer.JobTitle)
		return fmt.Errorf("%w: offer %q", entity.ErrAlreadyExists, offer.JobTitle)
	}

	s.logger.Debug("offer created", "jobTitle", offer.JobTitle, "applicationCount", offer.ApplicationCount)
	return nil
}

// GetOffer returns the offer whose job title matches exactly.
func (s *Store) GetOffer(ctx context.Context, jobTitle string) (entity.Offer, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.db.QueryRow(ctx, `
		SELECT job_title, start_date, number_of_applications
		FROM offers
		WHERE job_title = $1
	`, jobTitle)

	offer, err := scanOffer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		s.logger.Debug("getOffer found no offer", "jobTitle", jobTitle)
		return entity.Offer{}, fmt.Errorf("%w: no offer for job title %q", entity.ErrNotFound, jobTitle)
	}
	if err != nil {
		return entity.Offer{}, fmt.Errorf("failed to get offer: %w", err)
	}
	return offer, nil
}

// ListOffers returns all offers in insertion order.
func (s *Store) ListOffers(ctx context.Context) ([]entity.Offer, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT job_title, start_date, number_of_applications
		FROM offers
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}

	offers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Offer, error) {
		return scanOffer(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan offers: %w", err)
	}

	if len(offers) == 0 {
		return nil, fmt.Errorf("%w: no offers", entity.ErrNotFound)
	}
	return offers, nil
}

// CreateApplication stores a new application and increments the offer's count.
// Checks run in a fixed order: job title, candidate email, offer existence,
// then duplicate key.
func (s *Store) CreateApplication(ctx context.Context, app entity.Application) error {
	key := app.Key()
	s.logger.Debug("createApplication called", "key", key.String())

	if err := app.Validate(); err != nil {
		s.logger.Warn("createApplication rejected", "error", err)
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var count int64
	err := s.txm.WithTransaction(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT number_of_applications
			FROM offers
			WHERE job_title = $1
			FOR UPDATE
		`, app.JobTitle).Scan(&count)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: no offer for job title %q", entity.ErrNotFound, app.JobTitle)
		}
		if err != nil {
			return fmt.Errorf("failed to lock offer: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO applications (job_title, candidate_email, resume_text, status)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (job_title, candidate_email) DO NOTHING
		`, app.JobTitle, app.CandidateEmail, app.ResumeText, string(app.Status))
		if err != nil {
			return fmt.Errorf("failed to insert application: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: application %q", entity.ErrAlreadyExists, key.String())
		}

		if _, err := tx.Exec(ctx, `
			UPDATE offers
			SET number_of_applications = number_of_applications + 1
			WHERE job_title = $1
		`, app.JobTitle); err != nil {
			return fmt.Errorf("failed to increment application count: %w", err)
		}
		count++
		return nil
	})
	if err != nil {
		s.logger.Warn("createApplication rejected", "key", key.String(), "error", err)
		return err
	}

	s.logger.Debug("application created", "key", key.String(), "applicationCount", count)
	return nil
}

// UpdateApplicationStatus replaces the whole stored record and returns the
// status it held before.
func (s *Store) UpdateApplicationStatus(ctx context.Context, app entity.Application) (entity.Status, error) {
	key := app.Key()
	s.logger.Debug("updateApplicationStatus called", "key", key.String(), "status", app.Status)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var previous string
	err := s.txm.WithTransaction(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT status
			FROM applications
			WHERE job_title = $1 AND candidate_email = $2
			FOR UPDATE
		`, app.JobTitle, app.CandidateEmail).Scan(&previous)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: application %q", entity.ErrNotFound, key.String())
		}
		if err != nil {
			return fmt.Errorf("failed to lock application: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE applications
			SET resume_text = $3, status = $4, updated_at = NOW()
			WHERE job_title = $1 AND candidate_email = $2
		`, app.JobTitle, app.CandidateEmail, app.ResumeText, string(app.Status)); err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Debug("updateApplicationStatus failed", "key", key.String(), "error", err)
		return "", err
	}

	s.logger.Debug("application status changed", "key", key.String(), "from", previous, "to", app.Status)
	return entity.Status(previous), nil
}

// GetApplication returns the application matching both key components exactly.
func (s *Store) GetApplication(ctx context.Context, jobTitle, candidateEmail string) (entity.Application, error) {
	key := entity.ApplicationKey{JobTitle: jobTitle, CandidateEmail: candidateEmail}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.db.QueryRow(ctx, `
		SELECT job_title, candidate_email, resume_text, status
		FROM applications
		WHERE job_title = $1 AND candidate_email = $2
	`, jobTitle, candidateEmail)

	app, err := scanApplication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		s.logger.Debug("getApplication found no application", "key", key.String())
		return entity.Application{}, fmt.Errorf("%w: application %q", entity.ErrNotFound, key.String())
	}
	if err != nil {
		return entity.Application{}, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// ListApplicationsForOffer returns applications whose job title matches
// case-insensitively, in insertion order.
func (s *Store) ListApplicationsForOffer(ctx context.Context, jobTitle string) ([]entity.Application, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT job_title, candidate_email, resume_text, status
		FROM applications
		WHERE lower(job_title) = lower($1)
		ORDER BY seq
	`, jobTitle)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}

	apps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Application, error) {
		return scanApplication(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan applications: %w", err)
	}

	if len(apps) == 0 {
		s.logger.Debug("listApplicationsForOffer found no applications", "jobTitle", jobTitle)
		return nil, fmt.Errorf("%w: no applications for offer %q", entity.ErrNotFound, jobTitle)
	}
	return apps, nil
}

// CountApplicationsForOffer counts applications whose job title matches
// case-insensitively.
func (s *Store) CountApplicationsForOffer(ctx context.Context, jobTitle string) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM applications WHERE lower(job_title) = lower($1)
	`, jobTitle).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}

	if count == 0 {
		return 0, fmt.Errorf("%w: no applications for offer %q", entity.ErrNotFound, jobTitle)
	}
	return count, nil
}

// CountAllApplications returns the number of stored applications.
func (s *Store) CountAllApplications(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM applications`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}

	if count == 0 {
		return 0, fmt.Errorf("%w: no applications", entity.ErrNotFound)
	}
	return count, nil
}

// HealthCheck pings the database.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func scanOffer(row pgx.Row) (entity.Offer, error) {
	var (
		offer     entity.Offer
		startDate *time.Time
	)
	if err := row.Scan(&offer.JobTitle, &startDate, &offer.ApplicationCount); err != nil {
		return entity.Offer{}, err
	}
	if startDate != nil {
		offer.StartDate = startDate.UTC()
	}
	return offer, nil
}

func scanApplication(row pgx.Row) (entity.Application, error) {
	var (
		app    entity.Application
		status string
	)
	if err := row.Scan(&app.JobTitle, &app.CandidateEmail, &app.ResumeText, &status); err != nil {
		return entity.Application{}, err
	}
	app.Status = entity.Status(status)
	return app, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
