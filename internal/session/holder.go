package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/tasky/internal/models"
	"github.com/adanyl0v/tasky/internal/services"
	"github.com/adanyl0v/tasky/internal/state"
	"github.com/adanyl0v/tasky/internal/storage"
)

const minPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
	// ErrEstablishmentSuperseded reports that another login, logout or
	// registration started before the session could be established.
	ErrEstablishmentSuperseded = errors.New("session establishment superseded")

	errProfileNotReady = errors.New("profile not ready")
)

type State int

const (
	StateAnonymous State = iota
	StateRestoring
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateRestoring:
		return "restoring"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Storage keeps the session on the device between launches.
type Storage interface {
	Save(ctx context.Context, session models.Session) error
	// Load returns storage.ErrNoSession if nothing is stored.
	Load(ctx context.Context) (*models.Session, error)
	Clear(ctx context.Context) error
}

// RetryConfig bounds the wait for the profile row after sign-up.
type RetryConfig struct {
	Attempts uint64
	Interval time.Duration
	Timeout  time.Duration
}

type RegisterResult struct {
	UserID string
	Email  string
	// ConfirmationRequired is set when the backend granted no session.
	ConfirmationRequired bool
	// Established receives the outcome of the background session
	// establishment and is then closed. It is nil when
	// ConfirmationRequired is set.
	Established <-chan error
}

// Holder owns the current identity and drives the profile and task
// slices through the authentication lifecycle.
type Holder struct {
	logger   zerolog.Logger
	auth     services.AuthService
	profiles services.ProfileService
	storage  Storage
	retry    RetryConfig

	profileSlice *state.ProfileSlice
	taskSlice    *state.TaskSlice

	mu            sync.RWMutex
	state         State
	session       *models.Session
	epoch         uint64
	cancelPending context.CancelFunc
}

func NewHolder(
	logger zerolog.Logger,
	auth services.AuthService,
	profiles services.ProfileService,
	storage Storage,
	profileSlice *state.ProfileSlice,
	taskSlice *state.TaskSlice,
	retry RetryConfig,
) *Holder {
	return &Holder{
		logger:       logger,
		auth:         auth,
		profiles:     profiles,
		storage:      storage,
		retry:        retry,
		profileSlice: profileSlice,
		taskSlice:    taskSlice,
		state:        StateAnonymous,
	}
}

// Restore resumes the session persisted on the device, if any.
func (h *Holder) Restore(ctx context.Context) error {
	epoch := h.begin(StateRestoring)

	stored, err := h.storage.Load(ctx)
	if err != nil {
		h.reset(ctx, epoch)
		if errors.Is(err, storage.ErrNoSession) {
			h.logger.Debug().Msg("no session to restore")
			return nil
		}

		h.logger.Error().
			Err(err).
			Msg("failed to load persisted session")
		return err
	}

	current, err := h.auth.GetSession(ctx, stored.AccessToken, stored.RefreshToken)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("session_id", stored.ID).
			Msg("persisted session rejected")
		h.reset(ctx, epoch)
		return nil
	}

	if err = h.establish(ctx, *current, epoch); err != nil {
		return err
	}
	h.logger.Info().
		Str("user_id", current.UserID).
		Msg("restored session")
	return nil
}

// Login replaces any current session. A failed attempt leaves the
// holder anonymous with nothing of the previous identity kept.
func (h *Holder) Login(ctx context.Context, email, password string) (*models.Session, error) {
	if !validCredentials(email, password) {
		return nil, ErrInvalidCredentials
	}

	epoch := h.begin(StateAuthenticating)

	session, err := h.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		h.reset(ctx, epoch)
		if errors.Is(err, services.ErrUserNotFound) || errors.Is(err, services.ErrUserPasswordMismatch) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return nil, err
	}

	if err = h.establish(ctx, *session, epoch); err != nil {
		return nil, err
	}
	h.logger.Info().
		Str("user_id", session.UserID).
		Msg("logged in")
	return session, nil
}

// Register signs the user up. It does not authenticate by itself: if
// the backend grants a session right away, the session is established
// in the background once the backend has created the profile. A later
// Register, Login, Restore or Logout supersedes the pending
// establishment, which then reports ErrEstablishmentSuperseded.
func (h *Holder) Register(ctx context.Context, email, password string) (*RegisterResult, error) {
	if !validCredentials(email, password) {
		return nil, ErrInvalidCredentials
	}

	signUp, err := h.auth.SignUp(ctx, services.SignUpParams{
		Email:    email,
		Password: password,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to register")
		return nil, err
	}

	result := &RegisterResult{
		UserID:               signUp.UserID,
		Email:                signUp.Email,
		ConfirmationRequired: signUp.Session == nil,
	}
	if signUp.Session == nil {
		h.logger.Info().
			Str("user_id", signUp.UserID).
			Msg("registered, awaiting email confirmation")
		return result, nil
	}

	established := make(chan error, 1)
	result.Established = established

	bgCtx, cancel := h.backgroundContext(ctx)
	h.mu.Lock()
	epoch := h.advanceLocked()
	h.cancelPending = cancel
	h.mu.Unlock()

	session := *signUp.Session
	go func() {
		defer close(established)
		defer cancel()

		established <- h.establishAfterSignUp(bgCtx, session, epoch)
	}()

	h.logger.Info().
		Str("user_id", signUp.UserID).
		Msg("registered")
	return result, nil
}

func (h *Holder) establishAfterSignUp(ctx context.Context, session models.Session, epoch uint64) error {
	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = h.retry.Interval
	policy := backoff.WithContext(backoff.WithMaxRetries(exponential, h.retry.Attempts), ctx)

	err := backoff.Retry(func() error {
		exists, err := h.profiles.ProfileExists(ctx, session.UserID)
		if err != nil {
			return err
		}
		if !exists {
			return errProfileNotReady
		}
		return nil
	}, policy)
	if err != nil {
		if !h.current(epoch) {
			h.logger.Info().
				Str("user_id", session.UserID).
				Msg("session establishment superseded")
			return ErrEstablishmentSuperseded
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			h.logger.Error().
				Err(ctxErr).
				Str("user_id", session.UserID).
				Msg("gave up establishing session after sign-up")
			return ctxErr
		}

		h.logger.Warn().
			Err(err).
			Str("user_id", session.UserID).
			Msg("profile not visible after sign-up, establishing anyway")
	}

	return h.establish(ctx, session, epoch)
}

// Logout always ends the local session. The remote sign-out is best effort.
func (h *Holder) Logout(ctx context.Context) {
	h.mu.Lock()
	h.advanceLocked()
	ended := h.session
	h.dropLocked(ctx)
	h.mu.Unlock()

	if ended != nil {
		if err := h.auth.SignOut(ctx, ended.UserID); err != nil {
			h.logger.Warn().
				Err(err).
				Str("user_id", ended.UserID).
				Msg("remote sign out failed")
		}
	}
	h.logger.Info().Msg("logged out")
}

// UpdateProfile returns an error wrapping state.ErrProfileNotPersisted
// together with the locally applied profile when the backend write fails.
func (h *Holder) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.Profile, error) {
	identity := h.Identity()
	if identity == nil {
		return nil, ErrNotAuthenticated
	}
	return h.profileSlice.Update(ctx, identity.ID, patch)
}

func (h *Holder) RefreshProfile(ctx context.Context) {
	identity := h.Identity()
	if identity == nil {
		return
	}
	h.profileSlice.Refresh(ctx, identity.ID)
}

func (h *Holder) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Identity returns nil unless authenticated.
func (h *Holder) Identity() *models.Identity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.state != StateAuthenticated || h.session == nil {
		return nil
	}
	identity := h.session.Identity()
	return &identity
}

func (h *Holder) Session() *models.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil {
		return nil
	}
	session := *h.session
	return &session
}

// establish persists the session, marks the holder authenticated and
// loads the identity's profile and tasks. It fails with
// ErrEstablishmentSuperseded if epoch is no longer current.
func (h *Holder) establish(ctx context.Context, session models.Session, epoch uint64) error {
	h.mu.Lock()
	if h.epoch != epoch {
		h.mu.Unlock()
		return ErrEstablishmentSuperseded
	}
	if err := h.storage.Save(ctx, session); err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", session.UserID).
			Msg("failed to persist session")
	}
	h.session = &session
	h.state = StateAuthenticated
	h.profileSlice.Bind(session.UserID)
	h.taskSlice.Bind(session.UserID)
	h.mu.Unlock()

	if _, err := h.profileSlice.Bootstrap(ctx, session.UserID, session.Email); err != nil {
		h.logger.Debug().
			Err(err).
			Str("user_id", session.UserID).
			Msg("profile bootstrap dropped")
	}
	_ = h.taskSlice.FetchAll(ctx, session.UserID)
	return nil
}

// begin starts a new authentication attempt and returns its epoch.
func (h *Holder) begin(s State) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
	return h.advanceLocked()
}

// reset drops to anonymous unless a newer attempt has started.
func (h *Holder) reset(ctx context.Context, epoch uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.epoch != epoch {
		return
	}
	h.dropLocked(ctx)
}

// advanceLocked invalidates every attempt and pending establishment
// started before it.
func (h *Holder) advanceLocked() uint64 {
	h.epoch++
	if h.cancelPending != nil {
		h.cancelPending()
		h.cancelPending = nil
	}
	return h.epoch
}

// dropLocked forgets the identity on the device and in both slices.
func (h *Holder) dropLocked(ctx context.Context) {
	h.session = nil
	h.state = StateAnonymous
	h.profileSlice.Clear()
	h.taskSlice.Clear()
	if err := h.storage.Clear(ctx); err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to clear persisted session")
	}
}

func (h *Holder) current(epoch uint64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.epoch == epoch
}

// backgroundContext outlives the request that triggered the sign-up.
func (h *Holder) backgroundContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if h.retry.Timeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, h.retry.Timeout)
}

func validCredentials(email, password string) bool {
	return strings.Contains(email, "@") &&
		strings.Contains(email, ".") &&
		len(password) >= minPasswordLength
}
