package services

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/filevault-be/internal/models"
	"github.com/isdelr/filevault-be/internal/store"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentReset struct {
	email, username, url string
}

type fakeNotifier struct {
	sent []sentReset
	err  error
}

func (f *fakeNotifier) SendPasswordReset(toEmail, username, resetURL string) error {
	f.sent = append(f.sent, sentReset{toEmail, username, resetURL})
	return f.err
}

type recordedEvent struct {
	eventType, level, message, username string
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) CreateEvent(eventType, level, message string, username *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := ""
	if username != nil {
		name = *username
	}
	f.events = append(f.events, recordedEvent{eventType, level, message, name})
	return nil
}

func (f *fakeEvents) GetRecentEvents(username string, limit int) ([]models.Event, error) {
	return nil, nil
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		out = append(out, e.eventType)
	}
	return out
}

type fakeHub struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func (f *fakeHub) BroadcastTo(username string, message []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.messages == nil {
		f.messages = make(map[string][][]byte)
	}
	f.messages[username] = append(f.messages[username], message)
}

type testEnv struct {
	identity *IdentityService
	files    *FileService
	sessions *store.TokenStore
	resets   *store.TokenStore
	users    *store.UserStore
	clock    *fakeClock
	notifier *fakeNotifier
	events   *fakeEvents
	hub      *fakeHub
	root     string
	dataDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	root := filepath.Join(base, "files")
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	users, err := store.NewUserStore(dataDir)
	require.NoError(t, err)
	sessions, err := store.NewTokenStore(filepath.Join(dataDir, "sessions.json"), clock.Now)
	require.NoError(t, err)
	resets, err := store.NewTokenStore(filepath.Join(dataDir, "reset_tokens.json"), clock.Now)
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	events := &fakeEvents{}
	hub := &fakeHub{}

	identity, err := NewIdentityService(users, sessions, resets, notifier, events, IdentityConfig{
		FilesRoot:    root,
		ResetURLBase: "http://localhost:8000/reset-password",
	})
	require.NoError(t, err)
	identity.now = clock.Now

	return &testEnv{
		identity: identity,
		files:    NewFileService(identity, events, hub),
		sessions: sessions,
		resets:   resets,
		users:    users,
		clock:    clock,
		notifier: notifier,
		events:   events,
		hub:      hub,
		root:     root,
		dataDir:  dataDir,
	}
}
