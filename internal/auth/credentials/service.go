// Package credentials signs in users of service "email" with a password
// stored next to their team membership.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"team-sso/internal/auth"
	"team-sso/internal/domain"
	"team-sso/internal/events"
	"team-sso/internal/store"

	"go.uber.org/zap"
)

var (
	ErrAlreadyRegistered = errors.New("credentials already exist")
	ErrInvalidEmail      = errors.New("invalid email")
)

// Store is the persistence the service needs.
type Store interface {
	store.UserStore
	store.CredentialStore
	store.EventStore
}

type Service struct {
	log   *zap.SugaredLogger
	store Store
	sink  events.Sink
}

func NewService(st Store, sink events.Sink, log *zap.SugaredLogger) *Service {
	if sink == nil {
		sink = events.Discard{}
	}
	return &Service{log: log.Named("credentials"), store: st, sink: sink}
}

// Register creates an email user with a password inside team. The user is
// never an admin; admins come from the first federated signin.
func (s *Service) Register(ctx context.Context, team domain.Team, name, email, password, ip string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 {
		return nil, ErrInvalidEmail
	}
	if strings.TrimSpace(name) == "" {
		name = email[:at]
	}

	hash, version, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	service, serviceID := domain.ServiceEmail, strings.ToLower(email)
	user := &domain.User{
		TeamID:    team.ID,
		Service:   &service,
		ServiceID: &serviceID,
		Email:     email,
		Name:      strings.TrimSpace(name),
	}
	if err := s.store.CreateUserWithCredential(ctx, user, &domain.Credential{
		PasswordHash: hash,
		HashVersion:  version,
	}); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("create email user: %w", err)
	}

	e := domain.Event{
		Name:    domain.EventUsersCreate,
		ActorID: user.ID,
		UserID:  user.ID,
		TeamID:  team.ID,
		Data:    map[string]any{"name": user.Name, "service": domain.ServiceEmail},
		IP:      ip,
	}
	if err := s.store.CreateEvent(ctx, &e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.sink.Publish(publishCtx, e); err != nil {
		s.log.Warnw("event publish failed", "event", e.Name, "event_id", e.ID, "error", err)
	}

	s.log.Infow("email user registered", "team_id", team.ID, "user_id", user.ID)
	return user, nil
}

// Authenticate checks email and password against the team's email users.
// Every failure looks the same to the caller.
func (s *Service) Authenticate(ctx context.Context, teamID, email, password string) (*domain.User, error) {
	user, err := s.store.FindUserByServiceEmail(ctx, teamID, domain.ServiceEmail, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find email user: %w", err)
	}

	cred, err := s.store.GetCredentialByUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}

	if err := VerifyPassword(cred.PasswordHash, password); err != nil {
		return nil, auth.ErrInvalidCredentials
	}
	return user, nil
}
