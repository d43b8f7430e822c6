package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/tasky/internal/models"
)

const profileColumns = `id,
       email,
       first_name,
       last_name,
       avatar_url,
       language,
       theme,
       created_at,
       updated_at`

type profileRow struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	FirstName string    `db:"first_name"`
	LastName  *string   `db:"last_name"`
	AvatarURL *string   `db:"avatar_url"`
	Language  string    `db:"language"`
	Theme     string    `db:"theme"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r profileRow) toModel() models.Profile {
	return models.Profile{
		ID:        r.ID,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  derefString(r.LastName),
		Avatar:    derefString(r.AvatarURL),
		Language:  r.Language,
		Theme:     r.Theme,
		Status:    models.StatusConfirmed,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type profileServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
	now    func() time.Time
}

func NewProfileService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) ProfileService {
	return &profileServiceImpl{
		logger: logger,
		pgPool: pgPool,
		now:    time.Now,
	}
}

func (s *profileServiceImpl) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	const selectProfileByIDQuery = `
SELECT ` + profileColumns + `
FROM profiles
WHERE id = $1
`
	rows, err := s.pgPool.Query(
		ctx,
		selectProfileByIDQuery,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select profile by id")
		return nil, err
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[profileRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug().
				Str("user_id", userID).
				Msg("profile not found")
			return nil, ErrProfileNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to scan profile")
		return nil, err
	}

	profile := row.toModel()
	s.logger.Debug().
		Str("user_id", userID).
		Msg("selected profile by id")
	return &profile, nil
}

func (s *profileServiceImpl) CreateProfile(ctx context.Context, profile models.Profile) (*models.Profile, error) {
	const insertProfileQuery = `
INSERT INTO profiles (id,
                      email,
                      first_name,
                      last_name,
                      avatar_url,
                      language,
                      theme)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + profileColumns

	rows, err := s.pgPool.Query(
		ctx,
		insertProfileQuery,
		profile.ID,
		profile.Email,
		profile.FirstName,
		profile.LastName,
		nullString(profile.Avatar),
		profile.Language,
		profile.Theme,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert profile")
		return nil, err
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[profileRow])
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			s.logger.Warn().
				Str("user_id", profile.ID).
				Msg("profile already exists")
			return nil, ErrProfileAlreadyExists
		}

		s.logger.Error().
			Err(err).
			Str("user_id", profile.ID).
			Msg("failed to insert profile")
		return nil, err
	}

	created := row.toModel()
	s.logger.Info().
		Str("user_id", created.ID).
		Msg("created profile")
	return &created, nil
}

func (s *profileServiceImpl) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error) {
	columns := profilePatchColumns(patch, s.now())
	query, args := buildUpdateQuery("profiles", columns, userID, profileColumns)

	rows, err := s.pgPool.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to update profile")
		return nil, err
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[profileRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("user_id", userID).
				Msg("profile not found")
			return nil, ErrProfileNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to scan updated profile")
		return nil, err
	}

	profile := row.toModel()
	s.logger.Info().
		Str("user_id", userID).
		Msg("updated profile")
	return &profile, nil
}

func (s *profileServiceImpl) ProfileExists(ctx context.Context, userID string) (bool, error) {
	const profileExistsQuery = `
SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)
`
	var exists bool
	err := s.pgPool.QueryRow(
		ctx,
		profileExistsQuery,
		userID,
	).Scan(&exists)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to check profile existence")
		return false, err
	}
	return exists, nil
}

func profilePatchColumns(patch models.ProfilePatch, updatedAt time.Time) []column {
	var columns []column
	if patch.FirstName != nil {
		columns = append(columns, column{"first_name", *patch.FirstName})
	}
	if patch.LastName != nil {
		columns = append(columns, column{"last_name", *patch.LastName})
	}
	if patch.Avatar != nil {
		columns = append(columns, column{"avatar_url", nullString(*patch.Avatar)})
	}
	if patch.Language != nil {
		columns = append(columns, column{"language", *patch.Language})
	}
	if patch.Theme != nil {
		columns = append(columns, column{"theme", *patch.Theme})
	}
	return append(columns, column{"updated_at", updatedAt})
}
