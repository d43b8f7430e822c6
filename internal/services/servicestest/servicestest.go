// Package servicestest provides in-memory backends for tests of the
// packages built on top of services.
package servicestest

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/tasky/internal/models"
	"github.com/adanyl0v/tasky/internal/services"
)

// Tasks is an in-memory services.TaskService. Setting Err makes every
// call fail with it.
type Tasks struct {
	mu     sync.Mutex
	nextID int64
	rows   []models.Task
	calls  int

	Err error
	// BeforeFetch runs at the start of GetTasksByUserID, with the lock
	// released.
	BeforeFetch func()
}

var _ services.TaskService = (*Tasks)(nil)

func NewTasks(rows ...models.Task) *Tasks {
	return &Tasks{rows: rows, nextID: int64(len(rows))}
}

func (f *Tasks) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Tasks) GetTasksByUserID(_ context.Context, userID string) ([]models.Task, error) {
	if f.BeforeFetch != nil {
		f.BeforeFetch()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return nil, f.Err
	}

	var tasks []models.Task
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID {
			tasks = append(tasks, f.rows[i])
		}
	}
	return tasks, nil
}

func (f *Tasks) CreateTask(_ context.Context, userID string, input models.TaskInput) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return nil, f.Err
	}

	f.nextID++
	now := time.Now()
	priority := input.Priority
	if priority == "" {
		priority = models.DefaultPriority
	}
	task := models.Task{
		ID:          strconv.FormatInt(f.nextID, 10),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Notes:       input.Notes,
		Priority:    priority,
		Completed:   input.Completed,
		StartDate:   input.StartDate,
		DueDate:     input.DueDate,
		SoundURI:    input.SoundURI,
		SoundName:   input.SoundName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.rows = append(f.rows, task)
	return &task, nil
}

func (f *Tasks) SetTaskCompleted(_ context.Context, taskID string, completed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return f.Err
	}

	i := f.indexOf(taskID)
	if i < 0 {
		return services.ErrTaskNotFound
	}
	f.rows[i].Completed = completed
	f.rows[i].UpdatedAt = time.Now()
	return nil
}

func (f *Tasks) UpdateTask(_ context.Context, taskID string, patch models.TaskPatch) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return nil, f.Err
	}

	i := f.indexOf(taskID)
	if i < 0 {
		return nil, services.ErrTaskNotFound
	}
	task := &f.rows[i]
	task.Apply(patch)
	task.UpdatedAt = time.Now()

	updated := *task
	return &updated, nil
}

func (f *Tasks) DeleteTask(_ context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return f.Err
	}

	f.rows = slices.DeleteFunc(f.rows, func(t models.Task) bool {
		return t.ID == taskID
	})
	return nil
}

func (f *Tasks) indexOf(taskID string) int {
	return slices.IndexFunc(f.rows, func(t models.Task) bool {
		return t.ID == taskID
	})
}

// Profiles is an in-memory services.ProfileService. The error fields
// make the matching calls fail.
type Profiles struct {
	mu   sync.Mutex
	rows map[string]models.Profile

	GetErr    error
	CreateErr error
	UpdateErr error
	ExistsErr error

	// OnCreate runs before an insert is stored, with the lock released.
	OnCreate func(models.Profile)
	// BeforeGet runs at the start of GetProfile, with the lock released.
	BeforeGet func()
	// BeforeExists runs at the start of ProfileExists, with the lock
	// released.
	BeforeExists func()
}

var _ services.ProfileService = (*Profiles)(nil)

func NewProfiles(rows ...models.Profile) *Profiles {
	f := &Profiles{rows: make(map[string]models.Profile)}
	for _, row := range rows {
		row.Status = models.StatusConfirmed
		f.rows[row.ID] = row
	}
	return f
}

// Put stores a row as if another writer had inserted it.
func (f *Profiles) Put(profile models.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile.Status = models.StatusConfirmed
	f.rows[profile.ID] = profile
}

func (f *Profiles) SetGetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetErr = err
}

func (f *Profiles) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	if f.BeforeGet != nil {
		f.BeforeGet()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}

	profile, ok := f.rows[userID]
	if !ok {
		return nil, services.ErrProfileNotFound
	}
	return &profile, nil
}

func (f *Profiles) CreateProfile(_ context.Context, profile models.Profile) (*models.Profile, error) {
	if f.OnCreate != nil {
		f.OnCreate(profile)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	if _, ok := f.rows[profile.ID]; ok {
		return nil, services.ErrProfileAlreadyExists
	}

	now := time.Now()
	profile.Status = models.StatusConfirmed
	profile.CreatedAt = now
	profile.UpdatedAt = now
	f.rows[profile.ID] = profile
	return &profile, nil
}

func (f *Profiles) UpdateProfile(_ context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}

	profile, ok := f.rows[userID]
	if !ok {
		return nil, services.ErrProfileNotFound
	}
	profile.Apply(patch)
	profile.UpdatedAt = time.Now()
	f.rows[userID] = profile
	return &profile, nil
}

func (f *Profiles) ProfileExists(_ context.Context, userID string) (bool, error) {
	if f.BeforeExists != nil {
		f.BeforeExists()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ExistsErr != nil {
		return false, f.ExistsErr
	}

	_, ok := f.rows[userID]
	return ok, nil
}

// Account is a user known to Auth.
type Account struct {
	UserID   string
	Email    string
	Password string
}

// Auth is an in-memory services.AuthService. Tokens are opaque strings
// derived from a counter.
type Auth struct {
	mu       sync.Mutex
	accounts map[string]Account
	sessions map[string]models.Session
	counter  int
	signOuts int

	// SessionOnSignUp makes SignUp return a session.
	SessionOnSignUp bool
	// OnSignUp runs after a user is created.
	OnSignUp func(Account)

	SignInErr  error
	SignOutErr error
	SessionErr error
}

var _ services.AuthService = (*Auth)(nil)

func NewAuth(accounts ...Account) *Auth {
	f := &Auth{
		accounts: make(map[string]Account),
		sessions: make(map[string]models.Session),
	}
	for _, account := range accounts {
		f.accounts[account.Email] = account
	}
	return f
}

func (f *Auth) SignOuts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signOuts
}

func (f *Auth) SignUp(_ context.Context, params services.SignUpParams) (*services.SignUpResult, error) {
	f.mu.Lock()
	if _, ok := f.accounts[params.Email]; ok {
		f.mu.Unlock()
		return nil, services.ErrUserAlreadyExists
	}

	f.counter++
	account := Account{
		UserID:   "user-" + strconv.Itoa(f.counter),
		Email:    params.Email,
		Password: params.Password,
	}
	f.accounts[account.Email] = account

	result := &services.SignUpResult{
		UserID:    account.UserID,
		Email:     account.Email,
		CreatedAt: time.Now(),
	}
	if f.SessionOnSignUp {
		session := f.openSessionLocked(account)
		result.Session = &session
	}
	onSignUp := f.OnSignUp
	f.mu.Unlock()

	if onSignUp != nil {
		onSignUp(account)
	}
	return result, nil
}

func (f *Auth) SignInWithPassword(_ context.Context, email, password string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}

	account, ok := f.accounts[email]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	if account.Password != password {
		return nil, services.ErrUserPasswordMismatch
	}

	session := f.openSessionLocked(account)
	return &session, nil
}

func (f *Auth) SignOut(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	if f.SignOutErr != nil {
		return f.SignOutErr
	}

	for token, session := range f.sessions {
		if session.UserID == userID {
			delete(f.sessions, token)
		}
	}
	return nil
}

func (f *Auth) GetSession(_ context.Context, accessToken, refreshToken string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SessionErr != nil {
		return nil, f.SessionErr
	}

	session, ok := f.sessions[accessToken]
	if !ok || session.RefreshToken != refreshToken {
		return nil, services.ErrSessionNotFound
	}
	return &session, nil
}

func (f *Auth) ParseJWTToken(string) (*jwt.RegisteredClaims, error) {
	return nil, jwt.ErrTokenMalformed
}

func (f *Auth) openSessionLocked(account Account) models.Session {
	f.counter++
	n := strconv.Itoa(f.counter)
	now := time.Now()
	session := models.Session{
		ID:                    "session-" + n,
		UserID:                account.UserID,
		Email:                 account.Email,
		AccessToken:           "access-" + n,
		AccessTokenExpiresAt:  now.Add(time.Hour),
		RefreshToken:          "refresh-" + n,
		RefreshTokenExpiresAt: now.Add(24 * time.Hour),
	}
	f.sessions[session.AccessToken] = session
	return session
}
