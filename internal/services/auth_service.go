package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/tasky/internal/models"
)

// execer is satisfied by both *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type authServiceImpl struct {
	logger             zerolog.Logger
	pgPool             *pgxpool.Pool
	sessions           SessionService
	jwtIssuer          string
	jwtSigningKey      []byte
	jwtAccessTokenTTL  time.Duration
	jwtRefreshTokenTTL time.Duration
	confirmEmail       bool
}

func NewAuthService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	sessions SessionService,
	jwtIssuer string,
	jwtSigningKey []byte,
	jwtAccessTokenTTL time.Duration,
	jwtRefreshTokenTTL time.Duration,
	confirmEmail bool,
) AuthService {
	return &authServiceImpl{
		logger:             logger,
		pgPool:             pgPool,
		sessions:           sessions,
		jwtIssuer:          jwtIssuer,
		jwtSigningKey:      jwtSigningKey,
		jwtAccessTokenTTL:  jwtAccessTokenTTL,
		jwtRefreshTokenTTL: jwtRefreshTokenTTL,
		confirmEmail:       confirmEmail,
	}
}

func (s *authServiceImpl) SignUp(ctx context.Context, params SignUpParams) (*SignUpResult, error) {
	userUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate user uuid")
		return nil, err
	}

	passwordHash, err := argon2id.CreateHash(params.Password, argon2id.DefaultParams)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result := &SignUpResult{
		UserID: userUUID.String(),
		Email:  params.Email,
	}

	// The on_user_created trigger inserts the default profile.
	const insertUserQuery = `
INSERT INTO users (id,
                   email,
                   password)
VALUES ($1, $2, $3)
RETURNING created_at
`
	err = tx.QueryRow(
		ctx,
		insertUserQuery,
		result.UserID,
		result.Email,
		passwordHash,
	).Scan(&result.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			s.logger.Error().
				Str("email", params.Email).
				Msg("user with this email already exists")
			return nil, ErrUserAlreadyExists
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", result.UserID).
		Str("email", result.Email).
		Msg("inserted user")

	if !s.confirmEmail {
		result.Session, err = s.openSession(ctx, tx, result.UserID, result.Email)
		if err != nil {
			return nil, err
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", result.UserID).
		Bool("session_granted", result.Session != nil).
		Msg("signed up user")
	return result, nil
}

func (s *authServiceImpl) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	var userID, passwordHash string

	const selectUserByEmailQuery = `
SELECT id,
       password
FROM users
WHERE email = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectUserByEmailQuery,
		email,
	).Scan(
		&userID,
		&passwordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("email", email).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("email", email).
			Msg("failed to select user by email")
		return nil, err
	}

	match, err := argon2id.ComparePasswordAndHash(password, passwordHash)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to compare password")
		return nil, err
	} else if !match {
		s.logger.Error().Msg("passwords do not match")
		return nil, ErrUserPasswordMismatch
	}

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const deleteSessionsByUserIDQuery = `
DELETE FROM sessions
       WHERE user_id = $1
`
	tag, err := tx.Exec(
		ctx,
		deleteSessionsByUserIDQuery,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to delete sessions by user id")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", userID).
		Int64("affected", tag.RowsAffected()).
		Msg("deleted sessions by user id")

	session, err := s.openSession(ctx, tx, userID, email)
	if err != nil {
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("session_id", session.ID).
		Msg("signed in")
	return session, nil
}

func (s *authServiceImpl) SignOut(ctx context.Context, userID string) error {
	const deleteSessionsByUserIDQuery = `
DELETE FROM sessions
       WHERE user_id = $1
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteSessionsByUserIDQuery,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to delete sessions by user id")
		return err
	}
	s.logger.Debug().
		Str("user_id", userID).
		Int64("affected", tag.RowsAffected()).
		Msg("deleted sessions by user id")

	s.logger.Info().
		Str("user_id", userID).
		Msg("signed out")
	return nil
}

func (s *authServiceImpl) GetSession(ctx context.Context, accessToken, refreshToken string) (*models.Session, error) {
	claims, err := s.ParseJWTToken(accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.logger.Debug().Msg("access token expired, refreshing")
			return s.refresh(ctx, refreshToken)
		}

		s.logger.Error().
			Err(err).
			Msg("failed to parse access token")
		return nil, fmt.Errorf("%w: %w", ErrSessionNotFound, err)
	}

	session, err := s.sessions.GetSessionByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if session.RefreshToken != refreshToken {
		s.logger.Error().
			Str("session_id", session.ID).
			Msg("refresh token mismatch")
		return nil, ErrSessionNotFound
	}
	if session.RefreshTokenExpiresAt.Before(time.Now()) {
		s.logger.Error().
			Str("session_id", session.ID).
			Time("expires_at", session.RefreshTokenExpiresAt).
			Msg("session expired")
		return nil, ErrSessionExpired
	}

	session.AccessToken = accessToken
	session.AccessTokenExpiresAt = claims.ExpiresAt.Time
	return session, nil
}

func (s *authServiceImpl) refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	session := models.Session{
		RefreshToken: refreshToken,
	}

	const selectSessionByRefreshTokenQuery = `
SELECT s.id,
       s.user_id,
       u.email,
       s.expires_at
FROM sessions s
JOIN users u ON u.id = s.user_id
WHERE s.refresh_token = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectSessionByRefreshTokenQuery,
		session.RefreshToken,
	).Scan(
		&session.ID,
		&session.UserID,
		&session.Email,
		&session.RefreshTokenExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().Msg("session not found")
			return nil, ErrSessionNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to select session by refresh token")
		return nil, err
	}

	if session.RefreshTokenExpiresAt.Before(time.Now()) {
		s.logger.Error().
			Str("session_id", session.ID).
			Time("expires_at", session.RefreshTokenExpiresAt).
			Msg("session expired")
		return nil, ErrSessionExpired
	}

	session.RefreshToken, err = s.generateRefreshToken()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate refresh token")
		return nil, err
	}

	now := time.Now()
	session.RefreshTokenExpiresAt = now.Add(s.jwtRefreshTokenTTL)

	const updateSessionQuery = `
UPDATE sessions
SET refresh_token = $1,
    expires_at = $2,
    updated_at = $3
WHERE id = $4
`
	_, err = s.pgPool.Exec(
		ctx,
		updateSessionQuery,
		session.RefreshToken,
		session.RefreshTokenExpiresAt,
		now,
		session.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to update session")
		return nil, err
	}
	s.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.RefreshTokenExpiresAt).
		Msg("updated session")

	session.AccessToken, session.AccessTokenExpiresAt, err = s.generateAccessToken(session.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate access token")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", session.UserID).
		Str("session_id", session.ID).
		Msg("refreshed session")
	return &session, nil
}

func (s *authServiceImpl) openSession(ctx context.Context, q execer, userID, email string) (*models.Session, error) {
	sessionUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate session uuid")
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate refresh token")
		return nil, err
	}

	now := time.Now()
	session := &models.Session{
		ID:                    sessionUUID.String(),
		UserID:                userID,
		Email:                 email,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: now.Add(s.jwtRefreshTokenTTL),
	}

	const insertSessionQuery = `
INSERT INTO sessions (id,
                      user_id,
                      refresh_token,
                      expires_at,
                      created_at,
                      updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err = q.Exec(
		ctx,
		insertSessionQuery,
		session.ID,
		session.UserID,
		session.RefreshToken,
		session.RefreshTokenExpiresAt,
		now,
		now,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert session")
		return nil, err
	}
	s.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.RefreshTokenExpiresAt).
		Msg("inserted session")

	session.AccessToken, session.AccessTokenExpiresAt, err = s.generateAccessToken(session.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate access token")
		return nil, err
	}
	return session, nil
}

func (s *authServiceImpl) ParseJWTToken(token string) (*jwt.RegisteredClaims, error) {
	t, err := jwt.ParseWithClaims(
		token,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.jwtSigningKey, nil
		},
		jwt.WithIssuer(s.jwtIssuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token is expired: %w", err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := t.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, errors.New("failed to parse token claims")
	}
	return claims, nil
}

func (s *authServiceImpl) generateRefreshToken() (string, error) {
	const length = 32
	bytes := make([]byte, length)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func (s *authServiceImpl) generateAccessToken(sessionID string) (string, time.Time, error) {
	tokenUUID, err := uuid.NewRandom()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate id: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(s.jwtAccessTokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        tokenUUID.String(),
		Issuer:    s.jwtIssuer,
		Subject:   sessionID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	})

	signed, err := token.SignedString(s.jwtSigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}
