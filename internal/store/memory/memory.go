// Package memory is an in-process Store that enforces the same uniqueness
// rules as the Postgres schema. It backs the resolver, credentials and
// handler tests; the snapshot accessors at the bottom exist for their
// assertions and are not used by the server.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"team-sso/internal/domain"
	"team-sso/internal/store"

	"github.com/google/uuid"
)

type Store struct {
	mu          sync.Mutex
	teams       map[string]*domain.Team
	users       map[string]*domain.User
	collections []domain.Collection
	events      []domain.Event
	credentials map[string]*domain.Credential
	now         func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		teams:       make(map[string]*domain.Team),
		users:       make(map[string]*domain.User),
		credentials: make(map[string]*domain.Credential),
		now:         time.Now,
	}
}

func externalID(t *domain.Team, service string) (*string, bool) {
	switch service {
	case "office365":
		return t.Office365ID, true
	case "google":
		return t.GoogleID, true
	case "slack":
		return t.SlackID, true
	}
	return nil, false
}

func setExternalID(t *domain.Team, service, id string) {
	switch service {
	case "office365":
		t.Office365ID = &id
	case "google":
		t.GoogleID = &id
	case "slack":
		t.SlackID = &id
	}
}

func (s *Store) FindOrCreateTeam(_ context.Context, service, extID string, defaults domain.Team) (*domain.Team, bool, error) {
	if _, ok := externalID(&domain.Team{}, service); !ok {
		return nil, false, store.ErrUnknownService
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.teams {
		if id, _ := externalID(t, service); id != nil && *id == extID {
			cp := *t
			return &cp, false, nil
		}
	}

	t := defaults
	t.ID = uuid.NewString()
	setExternalID(&t, service, extID)
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt
	s.teams[t.ID] = &t

	cp := t
	return &cp, true, nil
}

func (s *Store) GetTeam(_ context.Context, id string) (*domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.teams[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Store) GetTeamBySubdomain(_ context.Context, subdomain string) (*domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.teams {
		if t.Subdomain != nil && *t.Subdomain == subdomain {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) SetTeamSubdomain(_ context.Context, teamID, subdomain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.teams[teamID]
	if !ok {
		return store.ErrNotFound
	}
	for id, other := range s.teams {
		if id != teamID && other.Subdomain != nil && *other.Subdomain == subdomain {
			return store.ErrConflict
		}
	}
	t.Subdomain = &subdomain
	t.UpdatedAt = s.now()
	return nil
}

func (s *Store) FindOrCreateUser(_ context.Context, match store.UserMatch, defaults domain.User) (*domain.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var invited *domain.User
	for _, u := range s.users {
		if u.TeamID != match.TeamID {
			continue
		}
		if u.Service != nil && *u.Service == match.Service && u.ServiceID != nil && *u.ServiceID == match.ServiceID {
			cp := *u
			return &cp, false, nil
		}
		if u.Service == nil && strings.EqualFold(u.Email, match.Email) {
			invited = u
		}
	}
	if invited != nil {
		cp := *invited
		return &cp, false, nil
	}

	u := defaults
	u.TeamID = match.TeamID
	if err := s.insertUserLocked(&u); err != nil {
		return nil, false, err
	}
	cp := u
	return &cp, true, nil
}

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertUserLocked(user)
}

func (s *Store) insertUserLocked(user *domain.User) error {
	if err := s.checkUniqueLocked("", user.TeamID, user.Service, user.ServiceID, user.Email); err != nil {
		return err
	}
	user.ID = uuid.NewString()
	user.CreatedAt = s.now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	s.users[cp.ID] = &cp
	return nil
}

func (s *Store) checkUniqueLocked(selfID, teamID string, service, serviceID *string, email string) error {
	for id, u := range s.users {
		if id == selfID || u.TeamID != teamID {
			continue
		}
		if strings.EqualFold(u.Email, email) {
			return store.ErrConflict
		}
		if service != nil && serviceID != nil && u.Service != nil && u.ServiceID != nil &&
			*u.Service == *service && *u.ServiceID == *serviceID {
			return store.ErrConflict
		}
	}
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) FindUserByServiceEmail(_ context.Context, teamID, service, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.TeamID == teamID && u.Service != nil && *u.Service == service && strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) LinkUserService(_ context.Context, userID, service, serviceID, avatarURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	if err := s.checkUniqueLocked(userID, u.TeamID, &service, &serviceID, u.Email); err != nil {
		return err
	}
	u.Service = &service
	u.ServiceID = &serviceID
	u.AvatarURL = avatarURL
	u.UpdatedAt = s.now()
	return nil
}

func (s *Store) UpdateUserEmail(_ context.Context, userID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	if err := s.checkUniqueLocked(userID, u.TeamID, nil, nil, email); err != nil {
		return err
	}
	u.Email = email
	u.UpdatedAt = s.now()
	return nil
}

func (s *Store) UpdateSignedIn(_ context.Context, userID, ip string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.LastSignedInAt = &at
	u.LastSignedInIP = &ip
	return nil
}

func (s *Store) CreateCollection(_ context.Context, c *domain.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()
	c.CreatedAt = s.now()
	s.collections = append(s.collections, *c)
	return nil
}

func (s *Store) CreateEvent(_ context.Context, e *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = uuid.NewString()
	e.CreatedAt = s.now()
	s.events = append(s.events, *e)
	return nil
}

func (s *Store) CreateUserWithCredential(_ context.Context, user *domain.User, c *domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.insertUserLocked(user); err != nil {
		return err
	}
	c.UserID = user.ID
	c.ID = uuid.NewString()
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	s.credentials[c.UserID] = &cp
	return nil
}

func (s *Store) GetCredentialByUser(_ context.Context, userID string) (*domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.credentials[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// Teams returns a snapshot of every team.
func (s *Store) Teams() []domain.Team {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, *t)
	}
	return out
}

// Users returns a snapshot of every user.
func (s *Store) Users() []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out
}

// Events returns the audit log in insertion order.
func (s *Store) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.Event(nil), s.events...)
}

// Collections returns every collection in insertion order.
func (s *Store) Collections() []domain.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.Collection(nil), s.collections...)
}
