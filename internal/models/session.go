package models

import "time"

type Identity struct {
	ID    string
	Email string
}

type Session struct {
	ID                    string
	UserID                string
	Email                 string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

func (s Session) Identity() Identity {
	return Identity{
		ID:    s.UserID,
		Email: s.Email,
	}
}
