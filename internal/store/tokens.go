package store

import (
	"errors"
	"time"

	"github.com/isdelr/filevault-be/internal/auth"
	"github.com/isdelr/filevault-be/internal/models"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")
)

// TokenStore keeps token-keyed records with an expiry, used for both
// sessions.json and reset_tokens.json.
type TokenStore struct {
	doc *document[models.TokenRecord]
	now func() time.Time
}

// NewTokenStore opens (creating if needed) the token document at path.
// A nil clock means time.Now.
func NewTokenStore(path string, clock func() time.Time) (*TokenStore, error) {
	doc, err := openDocument[models.TokenRecord](path)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = time.Now
	}
	return &TokenStore{doc: doc, now: clock}, nil
}

// Issue creates a fresh random token for username valid for ttl.
func (s *TokenStore) Issue(username string, ttl time.Duration) (models.TokenRecord, error) {
	token, err := auth.GenerateToken()
	if err != nil {
		return models.TokenRecord{}, err
	}
	now := s.now()
	record := models.TokenRecord{
		Token:     token,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	err = s.doc.update(func(records map[string]models.TokenRecord) (bool, error) {
		records[token] = record
		return true, nil
	})
	if err != nil {
		return models.TokenRecord{}, err
	}
	return record, nil
}

// CheckAndEvict returns the record for token. An expired record is deleted in
// the same cycle and reported as ErrTokenExpired.
func (s *TokenStore) CheckAndEvict(token string) (models.TokenRecord, error) {
	var record models.TokenRecord
	err := s.doc.update(func(records map[string]models.TokenRecord) (bool, error) {
		r, err := s.check(records, token)
		if err != nil {
			return errors.Is(err, ErrTokenExpired), err
		}
		record = r
		return false, nil
	})
	return record, err
}

// Consume is CheckAndEvict followed by deletion of a valid record, so a token
// can be redeemed once.
func (s *TokenStore) Consume(token string) (models.TokenRecord, error) {
	var record models.TokenRecord
	err := s.doc.update(func(records map[string]models.TokenRecord) (bool, error) {
		r, err := s.check(records, token)
		if err != nil {
			return errors.Is(err, ErrTokenExpired), err
		}
		delete(records, token)
		record = r
		return true, nil
	})
	return record, err
}

// Delete removes token, returning ErrTokenNotFound when it is absent.
func (s *TokenStore) Delete(token string) error {
	return s.doc.update(func(records map[string]models.TokenRecord) (bool, error) {
		if _, ok := records[token]; !ok {
			return false, ErrTokenNotFound
		}
		delete(records, token)
		return true, nil
	})
}

// Purge deletes every expired record and returns how many were removed.
func (s *TokenStore) Purge() (int, error) {
	removed := 0
	now := s.now()
	err := s.doc.update(func(records map[string]models.TokenRecord) (bool, error) {
		for token, r := range records {
			if r.Expired(now) {
				delete(records, token)
				removed++
			}
		}
		return removed > 0, nil
	})
	return removed, err
}

func (s *TokenStore) check(records map[string]models.TokenRecord, token string) (models.TokenRecord, error) {
	r, ok := records[token]
	if !ok {
		return models.TokenRecord{}, ErrTokenNotFound
	}
	if r.Expired(s.now()) {
		delete(records, token)
		return models.TokenRecord{}, ErrTokenExpired
	}
	r.Token = token
	return r, nil
}
