package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"team-sso/internal/domain"
)

const (
	insertEventQuery = `INSERT INTO events (name, actor_id, user_id, team_id, data, ip)
VALUES ($1, $2, $3, $4, $5::jsonb, $6)
RETURNING id, created_at`
	insertCollectionQuery = `INSERT INTO collections (team_id, creator_id, name, description, color)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`
)

// CreateEvent appends an audit event.
func (p *Postgres) CreateEvent(ctx context.Context, e *domain.Event) error {
	data := e.Data
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	err = p.db.QueryRow(ctx, insertEventQuery, e.Name, e.ActorID, e.UserID, e.TeamID, string(payload), e.IP).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// CreateCollection inserts a collection owned by its creator.
func (p *Postgres) CreateCollection(ctx context.Context, c *domain.Collection) error {
	err := p.db.QueryRow(ctx, insertCollectionQuery, c.TeamID, c.CreatorID, c.Name, c.Description, c.Color).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert collection: %w", err)
	}
	return nil
}
