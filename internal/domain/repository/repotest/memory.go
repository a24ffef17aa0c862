// Package repotest provides an in-memory UserRepository for tests.
package repotest

import (
	"context"
	"sync"
	"time"

	"github.com/homeservices/user-service/internal/domain/entity"
	"github.com/homeservices/user-service/internal/domain/repository"
)

// Store is a map-backed UserRepository. It mirrors the Postgres semantics:
// emails are unique across all rows, and lookups skip inactive rows.
type Store struct {
	mu    sync.Mutex
	users map[string]*entity.User

	// Now stamps created_at/updated_at/last_login writes.
	Now func() time.Time
	// Err, when set, is returned by every call.
	Err error
}

// New returns an empty store.
func New() *Store {
	return &Store{users: map[string]*entity.User{}, Now: time.Now}
}

func clone(u *entity.User) *entity.User {
	cp := *u
	cp.Roles = append([]string(nil), u.Roles...)
	return &cp
}

func withoutHash(u *entity.User) *entity.User {
	cp := clone(u)
	cp.PasswordHash = ""
	return cp
}

func (s *Store) Create(_ context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	now := s.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = clone(u)
	return nil
}

func (s *Store) findActiveByEmail(email string) *entity.User {
	for _, u := range s.users {
		if u.Email == email && u.IsActive {
			return u
		}
	}
	return nil
}

func (s *Store) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if u := s.findActiveByEmail(email); u != nil {
		return withoutHash(u), nil
	}
	return nil, repository.ErrNotFound
}

func (s *Store) GetByEmailWithHash(_ context.Context, email string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if u := s.findActiveByEmail(email); u != nil {
		return clone(u), nil
	}
	return nil, repository.ErrNotFound
}

func (s *Store) GetByID(_ context.Context, id string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok || !u.IsActive {
		return nil, repository.ErrNotFound
	}
	return withoutHash(u), nil
}

func (s *Store) GetByIDAnyStatus(_ context.Context, id string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return withoutHash(u), nil
}

func (s *Store) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLogin = &at
	return nil
}

func (s *Store) UpdateProfile(_ context.Context, id string, p entity.ProfilePatch) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok || !u.IsActive {
		return nil, repository.ErrNotFound
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Phone != nil {
		if *p.Phone == "" {
			u.Phone = nil
		} else {
			v := *p.Phone
			u.Phone = &v
		}
	}
	if p.AvatarURL != nil {
		v := *p.AvatarURL
		u.AvatarURL = &v
	}
	u.UpdatedAt = s.Now()
	return withoutHash(u), nil
}

func (s *Store) Deactivate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.users[id]
	if !ok || !u.IsActive {
		return repository.ErrNotFound
	}
	u.IsActive = false
	u.UpdatedAt = s.Now()
	return nil
}

// Promote adds roles to the row, keeping the set distinct.
func (s *Store) Promote(_ context.Context, id string, roles ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, r := range roles {
		if !u.HasAnyRole(r) {
			u.Roles = append(u.Roles, r)
		}
	}
	u.UpdatedAt = s.Now()
	return nil
}

// Raw returns the stored row including the hash, or nil.
func (s *Store) Raw(id string) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return clone(u)
	}
	return nil
}

var _ repository.UserRepository = (*Store)(nil)
