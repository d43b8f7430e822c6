package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/tasky/internal/models"
)

type staticIdentity struct {
	identity *models.Identity
}

func (s staticIdentity) Identity() *models.Identity {
	return s.identity
}

type recordingFetcher struct {
	mu     sync.Mutex
	owners []string
	err    error
}

func (r *recordingFetcher) FetchAll(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners = append(r.owners, ownerID)
	return r.err
}

func (r *recordingFetcher) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.owners...)
}

func TestScheduleIntervalRejectsNonPositive(t *testing.T) {
	s := New(zerolog.Nop())

	_, err := s.ScheduleInterval(0, func() {})
	assert.ErrorIs(t, err, ErrNonPositiveInterval)

	_, err = s.ScheduleInterval(-time.Second, func() {})
	assert.ErrorIs(t, err, ErrNonPositiveInterval)
}

func TestResyncJobSkipsWhenAnonymous(t *testing.T) {
	s := New(zerolog.Nop())
	fetcher := &recordingFetcher{}

	s.resyncJob(time.Second, staticIdentity{}, fetcher)()

	assert.Empty(t, fetcher.calls())
}

func TestResyncJobFetchesCurrentIdentity(t *testing.T) {
	s := New(zerolog.Nop())
	fetcher := &recordingFetcher{err: errors.New("offline")}
	identity := staticIdentity{identity: &models.Identity{ID: "u1", Email: "a@b.com"}}

	job := s.resyncJob(time.Second, identity, fetcher)
	job()
	job()

	assert.Equal(t, []string{"u1", "u1"}, fetcher.calls())
}

func TestScheduleTaskResyncRuns(t *testing.T) {
	s := New(zerolog.Nop())
	fetcher := &recordingFetcher{}
	identity := staticIdentity{identity: &models.Identity{ID: "u1"}}

	_, err := s.ScheduleTaskResync(time.Second, time.Second, identity, fetcher)
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return len(fetcher.calls()) > 0
	}, 5*time.Second, 50*time.Millisecond)
}
