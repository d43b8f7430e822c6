package models

import (
	"strings"
	"time"
)

const (
	DefaultLanguage = "es"
	DefaultTheme    = "light"
)

// SyncStatus tells whether a record is known to match a backend row.
type SyncStatus string

const (
	StatusConfirmed SyncStatus = "confirmed"
	StatusPending   SyncStatus = "pending"
)

type Profile struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Avatar    string
	Language  string
	Theme     string
	Status    SyncStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProfilePatch struct {
	FirstName *string
	LastName  *string
	Avatar    *string
	Language  *string
	Theme     *string
}

func (p ProfilePatch) Empty() bool {
	return p.FirstName == nil &&
		p.LastName == nil &&
		p.Avatar == nil &&
		p.Language == nil &&
		p.Theme == nil
}

// Apply copies the set fields of patch onto the profile.
func (p *Profile) Apply(patch ProfilePatch) {
	if patch.FirstName != nil {
		p.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		p.LastName = *patch.LastName
	}
	if patch.Avatar != nil {
		p.Avatar = *patch.Avatar
	}
	if patch.Language != nil {
		p.Language = *patch.Language
	}
	if patch.Theme != nil {
		p.Theme = *patch.Theme
	}
}

// NewDefaultProfile builds the profile a new identity starts with.
// The first name is the local part of the email.
func NewDefaultProfile(userID, email string, now time.Time) Profile {
	return Profile{
		ID:        userID,
		Email:     email,
		FirstName: EmailLocalPart(email),
		Language:  DefaultLanguage,
		Theme:     DefaultTheme,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func EmailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
