// Package repository persists leads and their qualification conversations
// in Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"leadqual_backend/internal/leads/domain"
)

var ErrNotFound = errors.New("lead not found")

// Lead is the persisted lead record.
type Lead struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Phone        *string
	Company      *string
	JobTitle     *string
	Website      *string
	Source       *string
	Message      *string
	Status       domain.Status
	Scores       domain.Scores
	Analysis     *string
	Confidence   float64
	HandedOff    bool
	ZohoLeadID   *string
	ZohoSyncedAt *time.Time
	QualifiedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Snapshot maps the record to the domain view used by prompts and CRM.
func (l Lead) Snapshot() domain.Lead {
	return domain.Lead{
		ID:       l.ID,
		Name:     l.Name,
		Email:    l.Email,
		Phone:    deref(l.Phone),
		Company:  deref(l.Company),
		JobTitle: deref(l.JobTitle),
		Website:  deref(l.Website),
		Message:  deref(l.Message),
	}
}

type CreateLeadParams struct {
	Name     string
	Email    string
	Phone    *string
	Company  *string
	JobTitle *string
	Website  *string
	Source   *string
	Message  *string
}

type ListParams struct {
	Status string
	Limit  int
	Offset int
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, name, email, phone, company, job_title, website, source, message, status,
	budget_score, authority_score, need_score, timeline_score,
	analysis, confidence, handed_off, zoho_lead_id, zoho_synced_at, qualified_at,
	created_at, updated_at`

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (name, email, phone, company, job_title, website, source, message, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+leadColumns,
		params.Name, params.Email, params.Phone, params.Company, params.JobTitle, params.Website,
		params.Source, params.Message, domain.StatusQualifying,
	)
	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// GetByEmail resolves the lead behind an inbound reply address.
func (r *Repository) GetByEmail(ctx context.Context, email string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE lower(email) = lower($1)
		ORDER BY created_at DESC LIMIT 1
	`, email)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	where := ""
	args := []interface{}{}
	if params.Status != "" {
		where = "WHERE status = $1"
		args = append(args, params.Status)
	}

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	countArgs := append([]interface{}{}, args...)
	args = append(args, limit, params.Offset)
	query := fmt.Sprintf(`SELECT %s FROM leads %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		leadColumns, where, len(args)-1, len(args))

	// The count and the page share no state, so run them on separate
	// pool connections.
	var total int
	var items []Lead
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, "SELECT count(*) FROM leads "+where, countArgs...).Scan(&total)
	})
	g.Go(func() error {
		rows, err := r.pool.Query(gctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		items = make([]Lead, 0)
		for rows.Next() {
			lead, err := scanLead(rows)
			if err != nil {
				return err
			}
			items = append(items, lead)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// MarkSynced records a successful CRM push. The handed-off flag is what
// guards the push against running twice; the Zoho id is for traceability.
func (r *Repository) MarkSynced(ctx context.Context, id uuid.UUID, zohoLeadID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET handed_off = true, zoho_lead_id = $2, zoho_synced_at = now(), updated_at = now()
		WHERE id = $1
	`, id, zohoLeadID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	var status string
	err := row.Scan(
		&l.ID, &l.Name, &l.Email, &l.Phone, &l.Company, &l.JobTitle, &l.Website, &l.Source, &l.Message, &status,
		&l.Scores.Budget, &l.Scores.Authority, &l.Scores.Need, &l.Scores.Timeline,
		&l.Analysis, &l.Confidence, &l.HandedOff, &l.ZohoLeadID, &l.ZohoSyncedAt, &l.QualifiedAt,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return Lead{}, err
	}
	l.Status = domain.Status(strings.TrimSpace(status))
	return l, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
