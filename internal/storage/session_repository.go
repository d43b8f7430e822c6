package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/adanyl0v/tasky/internal/models"
)

var ErrNoSession = errors.New("no persisted session")

// storedSession is the single session the device remembers
// between launches.
type storedSession struct {
	ID                    uint `gorm:"primaryKey"`
	SessionID             string
	UserID                string `gorm:"index"`
	Email                 string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (storedSession) TableName() string {
	return "device_sessions"
}

// SessionRepository persists the current session on the device.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save replaces whatever session was stored before.
func (r *SessionRepository) Save(ctx context.Context, session models.Session) error {
	row := storedSession{
		SessionID:             session.ID,
		UserID:                session.UserID,
		Email:                 session.Email,
		AccessToken:           session.AccessToken,
		AccessTokenExpiresAt:  session.AccessTokenExpiresAt,
		RefreshToken:          session.RefreshToken,
		RefreshTokenExpiresAt: session.RefreshTokenExpiresAt,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&storedSession{}).Error; err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns ErrNoSession if nothing is stored.
func (r *SessionRepository) Load(ctx context.Context) (*models.Session, error) {
	var row storedSession
	err := r.db.WithContext(ctx).Order("id DESC").First(&row).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNoSession
	default:
		return nil, fmt.Errorf("load session: %w", err)
	}

	return &models.Session{
		ID:                    row.SessionID,
		UserID:                row.UserID,
		Email:                 row.Email,
		AccessToken:           row.AccessToken,
		AccessTokenExpiresAt:  row.AccessTokenExpiresAt,
		RefreshToken:          row.RefreshToken,
		RefreshTokenExpiresAt: row.RefreshTokenExpiresAt,
	}, nil
}

func (r *SessionRepository) Clear(ctx context.Context) error {
	err := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&storedSession{}).Error
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
