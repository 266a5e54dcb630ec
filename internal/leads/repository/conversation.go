package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"leadqual_backend/internal/leads/domain"
)

// GetConversation reconstructs the qualification conversation for a lead
// from the lead row plus its ordered turns.
func (r *Repository) GetConversation(ctx context.Context, leadID uuid.UUID) (domain.Conversation, error) {
	lead, err := r.GetByID(ctx, leadID)
	if err != nil {
		return domain.Conversation{}, err
	}
	// A corrupted row must not feed a qualification step; reject it before
	// anything downstream writes state derived from it.
	if err := lead.Scores.Validate(); err != nil {
		return domain.Conversation{}, fmt.Errorf("lead %s: %w", leadID, err)
	}

	conv := domain.Conversation{
		LeadID:     lead.ID,
		Scores:     lead.Scores,
		Status:     lead.Status,
		HandedOff:  lead.HandedOff,
		Analysis:   deref(lead.Analysis),
		Confidence: lead.Confidence,
		CreatedAt:  lead.CreatedAt,
		UpdatedAt:  lead.UpdatedAt,
	}

	rows, err := r.pool.Query(ctx, `
		SELECT category, question, reply, asked_at, answered_at
		FROM lead_turns
		WHERE lead_id = $1
		ORDER BY position ASC
	`, leadID)
	if err != nil {
		return domain.Conversation{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.Turn
		var category string
		var reply *string
		if err := rows.Scan(&category, &t.Question, &reply, &t.AskedAt, &t.AnsweredAt); err != nil {
			return domain.Conversation{}, err
		}
		t.Category = domain.Category(category)
		t.Reply = deref(reply)
		conv.Turns = append(conv.Turns, t)
	}
	if rows.Err() != nil {
		return domain.Conversation{}, rows.Err()
	}
	return conv, nil
}

// SaveConversation writes the conversation value back in one transaction:
// the lead's scores and status plus the full turn list. The step that
// produced the value ran under the lead's lock, so a blanket rewrite of the
// turns is race free and keeps the stored list identical to the value.
func (r *Repository) SaveConversation(ctx context.Context, conv domain.Conversation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE leads
		SET status = $2,
			budget_score = $3, authority_score = $4, need_score = $5, timeline_score = $6,
			analysis = $7, confidence = $8, handed_off = $9,
			qualified_at = CASE WHEN $2 = 'qualified' AND qualified_at IS NULL THEN now() ELSE qualified_at END,
			updated_at = now()
		WHERE id = $1
	`, conv.LeadID, conv.Status,
		conv.Scores.Budget, conv.Scores.Authority, conv.Scores.Need, conv.Scores.Timeline,
		nullable(conv.Analysis), conv.Confidence, conv.HandedOff,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM lead_turns WHERE lead_id = $1`, conv.LeadID); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, t := range conv.Turns {
		batch.Queue(`
			INSERT INTO lead_turns (lead_id, position, category, question, reply, asked_at, answered_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, conv.LeadID, i, t.Category, t.Question, nullable(t.Reply), t.AskedAt, t.AnsweredAt)
	}
	if batch.Len() > 0 {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return err
			}
		}
		if err := results.Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// CountByStatus powers the health/overview endpoint.
func (r *Repository) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.Status(status)] = n
	}
	return counts, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IsNotFound reports whether err is the repository's missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
