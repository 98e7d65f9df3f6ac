package postgres

import (
	"context"
	"errors"
	"fmt"

	"team-sso/internal/domain"
	"team-sso/internal/store"

	"github.com/jackc/pgx/v5"
)

const teamColumns = `id, name, avatar_url, slack_id, google_id, office365_id, subdomain,
sharing, guest_signin, document_embeds, created_at, updated_at`

// externalIDColumns maps a provider to its unique team column. Column names
// are only ever taken from this map.
var externalIDColumns = map[string]string{
	"slack":     "slack_id",
	"google":    "google_id",
	"office365": "office365_id",
}

const findOrCreateAttempts = 3

func scanTeam(row pgx.Row) (*domain.Team, error) {
	var t domain.Team
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.AvatarURL,
		&t.SlackID,
		&t.GoogleID,
		&t.Office365ID,
		&t.Subdomain,
		&t.Sharing,
		&t.GuestSignin,
		&t.DocumentEmbeds,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindOrCreateTeam relies on the unique index of the external id column:
// the insert is a no-op when a concurrent signin won the race, in which
// case the winner's row is read back.
func (p *Postgres) FindOrCreateTeam(ctx context.Context, service, externalID string, defaults domain.Team) (*domain.Team, bool, error) {
	col, ok := externalIDColumns[service]
	if !ok {
		return nil, false, store.ErrUnknownService
	}

	insertQuery := fmt.Sprintf(`INSERT INTO teams (name, avatar_url, %[1]s)
VALUES ($1, $2, $3)
ON CONFLICT (%[1]s) DO NOTHING
RETURNING %[2]s`, col, teamColumns)
	selectQuery := fmt.Sprintf(`SELECT %s FROM teams WHERE %s = $1`, teamColumns, col)

	for attempt := 0; attempt < findOrCreateAttempts; attempt++ {
		team, err := scanTeam(p.db.QueryRow(ctx, insertQuery, defaults.Name, defaults.AvatarURL, externalID))
		if err == nil {
			p.log.Infow("team created", "team_id", team.ID, "service", service, "external_id", externalID)
			return team, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, fmt.Errorf("insert team: %w", err)
		}

		team, err = scanTeam(p.db.QueryRow(ctx, selectQuery, externalID))
		if err == nil {
			return team, false, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, fmt.Errorf("select team: %w", err)
		}
	}
	return nil, false, fmt.Errorf("find or create team %s=%s: %w", service, externalID, store.ErrConflict)
}

// GetTeam fetches a team by id.
func (p *Postgres) GetTeam(ctx context.Context, id string) (*domain.Team, error) {
	team, err := scanTeam(p.db.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	return team, nil
}

// GetTeamBySubdomain fetches a team by its routing subdomain.
func (p *Postgres) GetTeamBySubdomain(ctx context.Context, subdomain string) (*domain.Team, error) {
	team, err := scanTeam(p.db.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE subdomain = $1`, subdomain))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get team by subdomain: %w", err)
	}
	return team, nil
}

// SetTeamSubdomain assigns subdomain, reporting ErrConflict when taken.
func (p *Postgres) SetTeamSubdomain(ctx context.Context, teamID, subdomain string) error {
	tag, err := p.db.Exec(ctx, `UPDATE teams SET subdomain = $2, updated_at = NOW() WHERE id = $1`, teamID, subdomain)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("set team subdomain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
