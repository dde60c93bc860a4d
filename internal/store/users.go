package store

import (
	"errors"
	"path/filepath"

	"github.com/isdelr/filevault-be/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already registered")
)

// UserStore is the credential store, persisted as users.json.
type UserStore struct {
	doc *document[models.User]
}

// NewUserStore opens (creating if needed) users.json inside dataDir.
func NewUserStore(dataDir string) (*UserStore, error) {
	doc, err := openDocument[models.User](filepath.Join(dataDir, "users.json"))
	if err != nil {
		return nil, err
	}
	return &UserStore{doc: doc}, nil
}

// Get returns the record for username or ErrUserNotFound.
func (s *UserStore) Get(username string) (models.User, error) {
	var user models.User
	err := s.doc.view(func(users map[string]models.User) error {
		u, ok := users[username]
		if !ok {
			return ErrUserNotFound
		}
		u.Username = username
		user = u
		return nil
	})
	return user, err
}

// Put stores the record under username, replacing any existing one.
func (s *UserStore) Put(username string, user models.User) error {
	return s.doc.update(func(users map[string]models.User) (bool, error) {
		users[username] = user
		return true, nil
	})
}

// Create stores a new record, failing if the username or email is already in use.
// Both checks and the write happen in one locked cycle.
func (s *UserStore) Create(username string, user models.User) error {
	return s.doc.update(func(users map[string]models.User) (bool, error) {
		if _, ok := users[username]; ok {
			return false, ErrUsernameTaken
		}
		for _, u := range users {
			if u.Email == user.Email {
				return false, ErrEmailTaken
			}
		}
		users[username] = user
		return true, nil
	})
}

// Update applies fn to the stored record for username and saves it.
func (s *UserStore) Update(username string, fn func(user *models.User) error) error {
	return s.doc.update(func(users map[string]models.User) (bool, error) {
		u, ok := users[username]
		if !ok {
			return false, ErrUserNotFound
		}
		u.Username = username
		if err := fn(&u); err != nil {
			return false, err
		}
		users[username] = u
		return true, nil
	})
}

// EmailExists reports whether any user is registered with email.
func (s *UserStore) EmailExists(email string) (bool, error) {
	_, err := s.FindUsernameByEmail(email)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

// FindUsernameByEmail returns the username registered with email or ErrUserNotFound.
func (s *UserStore) FindUsernameByEmail(email string) (string, error) {
	var username string
	err := s.doc.view(func(users map[string]models.User) error {
		for name, u := range users {
			if u.Email == email {
				username = name
				return nil
			}
		}
		return ErrUserNotFound
	})
	return username, err
}

// SetEmail changes the email of username, failing with ErrEmailTaken when
// another user already has it.
func (s *UserStore) SetEmail(username, email string) error {
	return s.doc.update(func(users map[string]models.User) (bool, error) {
		u, ok := users[username]
		if !ok {
			return false, ErrUserNotFound
		}
		for name, other := range users {
			if name != username && other.Email == email {
				return false, ErrEmailTaken
			}
		}
		u.Email = email
		users[username] = u
		return true, nil
	})
}
