package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/tasky/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
	ErrTaskNotFound         = errors.New("task not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileAlreadyExists = errors.New("profile already exists")
)

type TaskService interface {
	// GetTasksByUserID returns every task owned by the user,
	// newest first. An empty result is not an error.
	GetTasksByUserID(ctx context.Context, userID string) ([]models.Task, error)

	// CreateTask inserts a task and returns the stored row with
	// the backend-assigned id and timestamps.
	CreateTask(ctx context.Context, userID string, input models.TaskInput) (*models.Task, error)

	// SetTaskCompleted updates the completion flag.
	//
	// It returns ErrTaskNotFound if no task has the given id.
	SetTaskCompleted(ctx context.Context, taskID string, completed bool) error

	// UpdateTask writes the non-nil fields of the patch, stamps
	// updated_at and returns the whole row.
	//
	// It returns ErrTaskNotFound if no task has the given id.
	UpdateTask(ctx context.Context, taskID string, patch models.TaskPatch) (*models.Task, error)

	// DeleteTask removes the task. Deleting a missing task succeeds.
	DeleteTask(ctx context.Context, taskID string) error
}

type ProfileService interface {
	// GetProfile returns ErrProfileNotFound if the row doesn't exist.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)

	// CreateProfile returns ErrProfileAlreadyExists if a row with
	// the same id was inserted first.
	CreateProfile(ctx context.Context, profile models.Profile) (*models.Profile, error)

	// UpdateProfile returns ErrProfileNotFound if the row doesn't exist.
	UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error)

	ProfileExists(ctx context.Context, userID string) (bool, error)
}

type AuthService interface {
	// SignUp creates the user. The backend creates the default
	// profile in the same transaction.
	//
	// The result carries a session unless email confirmation is
	// required. It returns ErrUserAlreadyExists if the email is taken.
	SignUp(ctx context.Context, params SignUpParams) (*SignUpResult, error)

	// SignInWithPassword authenticates the user and opens a session.
	//
	// It returns ErrUserNotFound if the email is unknown or
	// ErrUserPasswordMismatch if the password doesn't match.
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)

	// SignOut invalidates every session of the user.
	SignOut(ctx context.Context, userID string) error

	// GetSession validates a previously issued token pair. An expired
	// access token is renewed with the refresh token.
	//
	// It returns ErrSessionNotFound or ErrSessionExpired if the pair
	// can no longer be used.
	GetSession(ctx context.Context, accessToken, refreshToken string) (*models.Session, error)

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SessionService interface {
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
}

type SignUpParams struct {
	Email    string
	Password string
}

type SignUpResult struct {
	UserID    string
	Email     string
	CreatedAt time.Time
	// Session is nil when the address must be confirmed first.
	Session *models.Session
}
