package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/adanyl0v/tasky/internal/models"
	"github.com/adanyl0v/tasky/internal/services"
)

// ErrProfileNotPersisted is returned by Update when the change was
// applied locally but the backend write failed.
var ErrProfileNotPersisted = errors.New("profile change not persisted")

// ProfileSlice holds the profile of the current identity.
type ProfileSlice struct {
	logger zerolog.Logger
	remote services.ProfileService
	group  singleflight.Group
	now    func() time.Time

	mu      sync.RWMutex
	owner   owner
	profile *models.Profile
}

func NewProfileSlice(logger zerolog.Logger, remote services.ProfileService) *ProfileSlice {
	return &ProfileSlice{
		logger: logger,
		remote: remote,
		now:    time.Now,
	}
}

// Bootstrap makes sure a profile for the identity is present after
// authentication. A missing backend row is created from defaults. When
// the backend can't be reached the defaults are kept locally as pending.
//
// It returns ErrStaleOwner if the slice is bound to another identity or
// was cleared before the profile was resolved.
func (s *ProfileSlice) Bootstrap(ctx context.Context, identityID, email string) (models.Profile, error) {
	gen, err := s.begin(identityID)
	if err != nil {
		return models.Profile{}, err
	}

	profile := s.resolve(ctx, identityID, email)
	if !s.commit(gen, func() { s.profile = &profile }) {
		s.logger.Warn().
			Str("user_id", identityID).
			Msg("discarded profile bootstrapped for a previous session")
		return models.Profile{}, ErrStaleOwner
	}
	return profile, nil
}

func (s *ProfileSlice) resolve(ctx context.Context, identityID, email string) models.Profile {
	logger := s.logger.With().Str("user_id", identityID).Logger()

	found, err := s.remote.GetProfile(ctx, identityID)
	if err == nil {
		logger.Debug().Msg("bootstrapped existing profile")
		return *found
	}

	fallback := models.NewDefaultProfile(identityID, email, s.now())
	if !errors.Is(err, services.ErrProfileNotFound) {
		logger.Error().
			Err(err).
			Msg("failed to read profile, keeping local defaults")
		return fallback
	}

	created, err := s.remote.CreateProfile(ctx, fallback)
	switch {
	case err == nil:
		logger.Info().Msg("created default profile")
		return *created
	case errors.Is(err, services.ErrProfileAlreadyExists):
		again, readErr := s.remote.GetProfile(ctx, identityID)
		if readErr == nil {
			logger.Debug().Msg("profile was created concurrently")
			return *again
		}
		logger.Error().
			Err(readErr).
			Msg("failed to re-read concurrently created profile, keeping local defaults")
		return fallback
	default:
		logger.Error().
			Err(err).
			Msg("failed to create profile, keeping local defaults")
		return fallback
	}
}

// Refresh re-reads the profile. Failures are logged and the current
// profile is kept.
func (s *ProfileSlice) Refresh(ctx context.Context, identityID string) {
	gen, err := s.begin(identityID)
	if err != nil {
		return
	}

	key := identityID + "/" + strconv.FormatUint(gen, 10)
	_, _, _ = s.group.Do(key, func() (any, error) {
		profile, err := s.remote.GetProfile(ctx, identityID)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("user_id", identityID).
				Msg("failed to refresh profile")
			return nil, err
		}

		if !s.commit(gen, func() { s.profile = profile }) {
			s.logger.Warn().
				Str("user_id", identityID).
				Msg("discarded profile refreshed for a previous session")
			return nil, ErrStaleOwner
		}
		s.logger.Debug().
			Str("user_id", identityID).
			Msg("refreshed profile")
		return nil, nil
	})
}

// Update writes the patch to the backend and stores the returned row.
// If the write fails the patch is still applied locally, the profile
// is marked pending and the returned error wraps ErrProfileNotPersisted.
func (s *ProfileSlice) Update(ctx context.Context, identityID string, patch models.ProfilePatch) (*models.Profile, error) {
	gen, err := s.begin(identityID)
	if err != nil {
		return nil, err
	}

	updated, err := s.remote.UpdateProfile(ctx, identityID, patch)
	if err == nil {
		stored := *updated
		if !s.commit(gen, func() { s.profile = &stored }) {
			return nil, ErrStaleOwner
		}
		s.logger.Info().
			Str("user_id", identityID).
			Msg("updated profile")
		return updated, nil
	}

	s.logger.Error().
		Err(err).
		Str("user_id", identityID).
		Msg("failed to update profile, applying locally")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner.gen != gen {
		return nil, ErrStaleOwner
	}
	if s.profile == nil || s.profile.ID != identityID {
		return nil, fmt.Errorf("%w: %w", ErrProfileNotPersisted, err)
	}
	s.profile.Apply(patch)
	s.profile.Status = models.StatusPending
	s.profile.UpdatedAt = s.now()

	local := *s.profile
	return &local, fmt.Errorf("%w: %w", ErrProfileNotPersisted, err)
}

// Profile returns a copy of the stored profile or nil.
func (s *ProfileSlice) Profile() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	profile := *s.profile
	return &profile
}

func (s *ProfileSlice) Set(profile models.Profile) {
	s.mu.Lock()
	s.profile = &profile
	s.mu.Unlock()
}

// Bind drops the stored profile and dedicates the slice to the identity.
func (s *ProfileSlice) Bind(identityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = owner{bound: true, id: identityID, gen: s.owner.gen + 1}
	s.profile = nil
}

// Clear drops the stored profile and rejects calls until the next Bind.
func (s *ProfileSlice) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = owner{bound: true, gen: s.owner.gen + 1}
	s.profile = nil
}

func (s *ProfileSlice) begin(identityID string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.owner.accepts(identityID) {
		s.logger.Warn().
			Str("user_id", identityID).
			Msg("rejected profile call for an inactive identity")
		return 0, ErrStaleOwner
	}
	return s.owner.gen, nil
}

func (s *ProfileSlice) commit(gen uint64, apply func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner.gen != gen {
		return false
	}
	apply()
	return true
}
