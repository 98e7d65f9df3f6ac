package resolver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"team-sso/internal/auth"
	"team-sso/internal/domain"
	"team-sso/internal/events"
	"team-sso/internal/store"

	"go.uber.org/zap"
)

const (
	starterCollectionName  = "Welcome"
	starterCollectionDesc  = "This collection is a quick guide to what your knowledge base is all about. Feel free to delete it."
	starterCollectionColor = "#4E5C6E"

	subdomainAttempts = 10
)

// Avatars picks avatar URLs. Implementations never fail.
type Avatars interface {
	TeamAvatar(ctx context.Context, domain, teamName string) string
	UserAvatar(subject, name string) string
}

// Linker resolves verified profiles onto teams and users. All uniqueness
// guarantees come from the store; Linker assumes concurrent writers.
type Linker struct {
	log     *zap.SugaredLogger
	store   store.Store
	avatars Avatars
	sink    events.Sink
	allowed map[string][]string
}

var _ Resolver = (*Linker)(nil)

// NewLinker builds a Linker. allowed maps a provider name to its email
// domain allow-list; providers without an entry accept every domain.
func NewLinker(st store.Store, avatars Avatars, sink events.Sink, allowed map[string][]string, log *zap.SugaredLogger) *Linker {
	if sink == nil {
		sink = events.Discard{}
	}
	return &Linker{
		log:     log.Named("resolver"),
		store:   st,
		avatars: avatars,
		sink:    sink,
		allowed: allowed,
	}
}

func (l *Linker) Resolve(ctx context.Context, req Request) (*Result, error) {
	p := req.Profile
	if p.Provider == "" || p.Subject == "" {
		return nil, auth.ErrInvalidProfile
	}
	emailDomain, ok := EmailDomain(p.Email)
	if !ok {
		return nil, fmt.Errorf("%w: email %q has no domain", auth.ErrInvalidProfile, p.Email)
	}
	if !DomainAllowed(emailDomain, l.allowed[p.Provider]) {
		return nil, fmt.Errorf("%w: %s", auth.ErrDomainNotAllowed, emailDomain)
	}

	label := FirstLabel(emailDomain)
	teamName := TeamName(label)

	team, isFirstUser, err := l.store.FindOrCreateTeam(ctx, p.Provider, emailDomain, domain.Team{
		Name:      teamName,
		AvatarURL: l.avatars.TeamAvatar(ctx, emailDomain, teamName),
	})
	if err != nil {
		return nil, fmt.Errorf("resolve team: %w", err)
	}

	user, isFirstSignin, err := l.resolveUser(ctx, *team, isFirstUser, p)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, l.recoverConflict(ctx, *team, p)
		}
		return nil, err
	}

	if isFirstUser {
		if err := l.provisionTeam(ctx, team, user, label); err != nil {
			return nil, err
		}
	}

	if isFirstSignin {
		if err := l.recordUserCreated(ctx, *team, *user, p.Provider, req.IP); err != nil {
			return nil, err
		}
	}

	l.log.Infow("signin resolved",
		"provider", p.Provider,
		"team_id", team.ID,
		"user_id", user.ID,
		"first_user_of_team", isFirstUser,
		"first_signin", isFirstSignin,
	)

	return &Result{
		Team:                *team,
		User:                *user,
		IsFirstUserOfTeam:   isFirstUser,
		IsFirstSigninOfUser: isFirstSignin,
	}, nil
}

// resolveUser finds or creates the team member for p. Only users with the
// same provider and subject, or invited users with no service at all, are
// matched; a user of another provider with the same email is not.
func (l *Linker) resolveUser(ctx context.Context, team domain.Team, isFirstUser bool, p auth.Profile) (*domain.User, bool, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = p.Email[:strings.LastIndex(p.Email, "@")]
	}
	avatarURL := l.avatars.UserAvatar(p.Subject, name)
	service, serviceID := p.Provider, p.Subject

	user, created, err := l.store.FindOrCreateUser(ctx, store.UserMatch{
		TeamID:    team.ID,
		Service:   service,
		ServiceID: serviceID,
		Email:     p.Email,
	}, domain.User{
		Service:   &service,
		ServiceID: &serviceID,
		Name:      name,
		Email:     p.Email,
		AvatarURL: avatarURL,
		IsAdmin:   isFirstUser,
	})
	if err != nil {
		return nil, false, fmt.Errorf("resolve user: %w", err)
	}

	if !user.Federated() {
		if err := l.store.LinkUserService(ctx, user.ID, service, serviceID, avatarURL); err != nil {
			return nil, false, fmt.Errorf("link invited user: %w", err)
		}
		user.Service, user.ServiceID, user.AvatarURL = &service, &serviceID, avatarURL
		l.log.Infow("invited user linked", "user_id", user.ID, "provider", service)
	}

	if !created && user.Email != p.Email {
		if err := l.store.UpdateUserEmail(ctx, user.ID, p.Email); err != nil {
			return nil, false, fmt.Errorf("update user email: %w", err)
		}
		user.Email = p.Email
	}

	return user, created, nil
}

// recoverConflict classifies a uniqueness violation raised while resolving
// the user. It never returns nil.
func (l *Linker) recoverConflict(ctx context.Context, team domain.Team, p auth.Profile) error {
	_, err := l.store.FindUserByServiceEmail(ctx, team.ID, domain.ServiceEmail, p.Email)
	switch {
	case err == nil:
		l.log.Infow("signin requires email auth", "team_id", team.ID, "provider", p.Provider)
		return &auth.TeamError{Team: team, Err: auth.ErrEmailAuthRequired}
	case errors.Is(err, store.ErrNotFound):
		l.log.Warnw("signin conflict", "team_id", team.ID, "provider", p.Provider)
		return &auth.TeamError{Team: team, Err: auth.ErrAuthFailed}
	default:
		return fmt.Errorf("recover user conflict: %w", err)
	}
}

func (l *Linker) provisionTeam(ctx context.Context, team *domain.Team, user *domain.User, label string) error {
	if err := l.store.CreateCollection(ctx, &domain.Collection{
		TeamID:      team.ID,
		CreatorID:   user.ID,
		Name:        starterCollectionName,
		Description: starterCollectionDesc,
		Color:       starterCollectionColor,
	}); err != nil {
		return fmt.Errorf("provision first collection: %w", err)
	}

	subdomain, err := l.provisionSubdomain(ctx, *team, label)
	if err != nil {
		return err
	}
	if subdomain != "" {
		team.Subdomain = &subdomain
	}
	return nil
}

// provisionSubdomain assigns the first free subdomain among label, label1,
// label2, ... and returns it. A team that already has one keeps it.
func (l *Linker) provisionSubdomain(ctx context.Context, team domain.Team, label string) (string, error) {
	if team.Subdomain != nil && *team.Subdomain != "" {
		return *team.Subdomain, nil
	}
	requested := SubdomainFor(label)
	if requested == "" {
		return "", nil
	}

	candidate := requested
	for attempt := 1; attempt <= subdomainAttempts; attempt++ {
		err := l.store.SetTeamSubdomain(ctx, team.ID, candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return "", fmt.Errorf("provision subdomain: %w", err)
		}
		candidate = requested + strconv.Itoa(attempt)
	}

	l.log.Warnw("no free subdomain", "team_id", team.ID, "requested", requested)
	return "", nil
}

func (l *Linker) recordUserCreated(ctx context.Context, team domain.Team, user domain.User, provider, ip string) error {
	e := domain.Event{
		Name:    domain.EventUsersCreate,
		ActorID: user.ID,
		UserID:  user.ID,
		TeamID:  team.ID,
		Data: map[string]any{
			"name":    user.Name,
			"service": provider,
		},
		IP: ip,
	}
	if err := l.store.CreateEvent(ctx, &e); err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := l.sink.Publish(publishCtx, e); err != nil {
		l.log.Warnw("event publish failed", "event", e.Name, "event_id", e.ID, "error", err)
	}
	return nil
}
