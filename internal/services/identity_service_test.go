package services

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegisterLoginVerify(t *testing.T) {
	tests := []struct {
		username, password, email string
	}{
		{"alice", "pw123", "a@x.com"},
		{"bob.smith", "correct horse battery staple", "bob@example.org"},
		{"Ünïcode", "пароль", "u@x.com"},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			env := newTestEnv(t)

			require.NoError(t, env.identity.Register(tt.username, tt.password, tt.email))

			token, err := env.identity.Login(tt.username, tt.password)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			username, err := env.identity.VerifySession(token)
			require.NoError(t, err)
			require.Equal(t, tt.username, username)
		})
	}
}

func TestRegister_CreatesRecordAndDirectory(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.identity.Register("alice", "pw123", "a@x.com"))

	fi, err := os.Stat(filepath.Join(env.root, "alice"))
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	u, err := env.users.Get("alice")
	require.NoError(t, err)
	require.Equal(t, "alice", u.UserDir)
	require.Equal(t, "a@x.com", u.Email)
	require.False(t, u.IsVerified)
	require.Nil(t, u.LastLogin)
	require.Equal(t, env.clock.Now(), u.CreatedAt)
	require.NotContains(t, u.PasswordHash, "pw123")
	require.Contains(t, u.PasswordHash, "$")

	require.Equal(t, []string{"user.register"}, env.events.types())
}

func TestRegister_Conflicts(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.identity.Register("alice", "pw123", "a@x.com"))

	err := env.identity.Register("alice", "other", "other@x.com")
	require.ErrorIs(t, err, ErrDuplicateUsername)
	require.ErrorIs(t, err, ErrConflict)

	err = env.identity.Register("bob", "pw", "a@x.com")
	require.ErrorIs(t, err, ErrDuplicateEmail)
	require.ErrorIs(t, err, ErrConflict)
}

func TestRegister_InvalidInput(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name                      string
		username, password, email string
	}{
		{"empty username", "", "pw", "a@x.com"},
		{"empty password", "alice", "", "a@x.com"},
		{"empty email", "alice", "pw", ""},
		{"slash in username", "a/b", "pw", "a@x.com"},
		{"dot dot username", "..", "pw", "a@x.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.identity.Register(tt.username, tt.password, tt.email)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.identity.Register("alice", "pw123", "a@x.com"))

	token, err := env.identity.Login("alice", "wrongpw")
	require.ErrorIs(t, err, ErrBadPassword)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Empty(t, token)

	removed, err := env.sessions.Purge()
	require.NoError(t, err)
	require.Zero(t, removed)
	data, err := os.ReadFile(filepath.Join(env.dataDir, "sessions.json"))
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(data), "no session may be issued on a bad password")

	_, err = env.identity.Login("ghost", "pw123")
	require.ErrorIs(t, err, ErrUserNotFound)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLogin_UpdatesLastLogin(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.identity.Register("alice", "pw123", "a@x.com"))

	env.clock.Advance(time.Hour)
	_, err := env.identity.Login("alice", "pw123")
	require.NoError(t, err)

	info, err := env.identity.UserInfo("alice")
	require.NoError(t, err)
	require.NotNil(t, info.LastLogin)
	require.Equal(t, env.clock.Now(), *info.LastLogin)
}

func TestVerifySession_Expiry(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.identity.Register("alice", "pw123", "a@x.com"))
	token, err := env.identity.Login("alice", "pw123")
	require.NoError(t, err)

	env.clock.Advance(23 * time.Hour)
	username, err := env.identity.VerifySession(token)
	require.NoError(t, err)
	require.Equal(t, "alice", username)

	env.clock.Advance(time.Hour + time.Second)
	_, err = env.identity.VerifySession(token)
	require.ErrorIs(t, err, ErrSessionInvalid)
	require.ErrorIs(t, err, ErrUnauthorized)

	require.ErrorIs(t, env.identity.Logout(token), ErrSessionNotFound, "expired session should have been evicted")
}

func TestVerifySession_Unknown(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.identity.VerifySession("")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.identity.VerifySession("not-a-token")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.identity.Register("alice", "pw123", "a@x.com"))
	token, err := env.identity.Login("alice", "pw123")
	require.NoError(t, err)

	require.NoError(t, env.identity.Logout(token))

	_, err = env.identity.VerifySession(token)
	require.ErrorIs(t, err, ErrSessionInvalid)

	err = env.identity.Logout(token)
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserInfo(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.identity.Register("alice", "pw123", "a@x.com"))

	info, err := env.identity.UserInfo("alice")
	require.NoError(t, err)
	require.Equal(t, "alice", info.Username)
	require.Equal(t, "a@x.com", info.Email)
	require.Equal(t, "alice", info.UserDir)
	require.False(t, info.IsVerified)

	_, err = env.identity.UserInfo("ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateEmail(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.identity.Register("alice", "pw123", "a@x.com"))
	require.NoError(t, env.identity.Register("bob", "pw123", "b@x.com"))

	require.ErrorIs(t, env.identity.UpdateEmail("alice", "b@x.com"), ErrDuplicateEmail)
	require.ErrorIs(t, env.identity.UpdateEmail("alice", ""), ErrInvalidInput)
	require.ErrorIs(t, env.identity.UpdateEmail("ghost", "g@x.com"), ErrUserNotFound)
	require.NoError(t, env.identity.UpdateEmail("alice", "alice@x.com"))

	info, err := env.identity.UserInfo("alice")
	require.NoError(t, err)
	require.Equal(t, "alice@x.com", info.Email)
}

func resetTokenFrom(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func TestPasswordReset_Flow(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.identity.Register("alice", "pw123", "a@x.com"))

	require.NoError(t, env.identity.RequestPasswordReset("a@x.com"))
	require.Len(t, env.notifier.sent, 1)
	sent := env.notifier.sent[0]
	require.Equal(t, "a@x.com", sent.email)
	require.Equal(t, "alice", sent.username)
	require.True(t, strings.HasPrefix(sent.url, "http://localhost:8000/reset-password?token="))

	token := resetTokenFrom(t, sent.url)
	require.NoError(t, env.identity.ResetPassword(token, "newpw"))

	_, err := env.identity.Login("alice", "pw123")
	require.ErrorIs(t, err, ErrBadPassword)
	_, err = env.identity.Login("alice", "newpw")
	require.NoError(t, err)

	err = env.identity.ResetPassword(token, "again")
	require.ErrorIs(t, err, ErrInvalidToken)
	require.ErrorIs(t, err, ErrNotFound, "a reset token works at most once")
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	err := env.identity.RequestPasswordReset("nobody@x.com")
	require.ErrorIs(t, err, ErrEmailNotFound)
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, env.notifier.sent)
}

func TestRequestPasswordReset_DeliveryFailureStillSucceeds(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.identity.Register("alice", "pw123", "a@x.com"))
	env.notifier.err = os.ErrDeadlineExceeded

	require.NoError(t, env.identity.RequestPasswordReset("a@x.com"))
	require.Len(t, env.notifier.sent, 1)

	token := resetTokenFrom(t, env.notifier.sent[0].url)
	require.NoError(t, env.identity.ResetPassword(token, "newpw"), "token must be usable even if the email failed")
}

func TestResetPassword_Expired(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.identity.Register("alice", "pw123", "a@x.com"))
	require.NoError(t, env.identity.RequestPasswordReset("a@x.com"))
	token := resetTokenFrom(t, env.notifier.sent[0].url)

	env.clock.Advance(time.Hour + time.Second)
	err := env.identity.ResetPassword(token, "newpw")
	require.ErrorIs(t, err, ErrExpiredToken)

	err = env.identity.ResetPassword(token, "newpw")
	require.ErrorIs(t, err, ErrInvalidToken, "expired token should have been evicted")

	_, err = env.identity.Login("alice", "pw123")
	require.NoError(t, err, "old password must still work")
}

func TestResetPassword_UserVanished(t *testing.T) {
	env := newTestEnv(t)
	rec, err := env.resets.Issue("ghost", time.Hour)
	require.NoError(t, err)

	err = env.identity.ResetPassword(rec.Token, "newpw")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestResetPassword_MissingFields(t *testing.T) {
	env := newTestEnv(t)
	require.ErrorIs(t, env.identity.ResetPassword("", "pw"), ErrInvalidInput)
	require.ErrorIs(t, env.identity.ResetPassword("tok", ""), ErrInvalidInput)
}

func TestUserDir(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.identity.Register("alice", "pw123", "a@x.com"))

	dir, err := env.identity.UserDir("alice")
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(dir))
	require.Equal(t, filepath.Join(env.root, "alice"), dir)

	_, err = env.identity.UserDir("ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestResetPassword_ConcurrentRedemptionSucceedsOnce(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.identity.Register("alice", "pw123", "a@x.com"))

	for round := 0; round < 5; round++ {
		rec, err := env.resets.Issue("alice", time.Hour)
		require.NoError(t, err)

		const workers = 6
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = env.identity.ResetPassword(rec.Token, fmt.Sprintf("pw-%d-%d", round, i))
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			require.ErrorIs(t, err, ErrInvalidToken)
		}
		require.Equal(t, 1, succeeded, "round %d", round)
	}
}
