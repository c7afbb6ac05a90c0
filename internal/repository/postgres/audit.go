package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"navio/api/internal/models"
	"navio/api/internal/repository"
)

type AuditRepository struct {
	db querier
}

func NewAuditRepository(db querier) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry models.AuditEntry) error {
	var meta []byte
	if entry.Meta != nil {
		var err error
		meta, err = json.Marshal(entry.Meta)
		if err != nil {
			return fmt.Errorf("encode audit meta: %w", err)
		}
	}

	const query = `
		INSERT INTO audit_log (id, action, actor_id, target_user_id, meta, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, NOW())
	`
	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.Action,
		entry.ActorID,
		entry.TargetUserID,
		meta,
	)
	return err
}

func (r *AuditRepository) List(ctx context.Context, filter repository.AuditFilter) ([]models.AuditEntry, string, error) {
	conds := []string{"TRUE"}
	var args []any

	if action := strings.TrimSpace(filter.Action); action != "" {
		args = append(args, strings.ToUpper(action))
		conds = append(conds, fmt.Sprintf("action = $%d", len(args)))
	}
	if filter.Cursor != "" {
		args = append(args, filter.Cursor)
		conds = append(conds, fmt.Sprintf(
			"(created_at, id) < (SELECT created_at, id FROM audit_log WHERE id = $%d)", len(args)))
	}

	args = append(args, filter.Limit+1)
	query := fmt.Sprintf(`
		SELECT id, action, COALESCE(actor_id, ''), COALESCE(target_user_id, ''), meta, created_at
		FROM audit_log
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d
	`, strings.Join(conds, " AND "), len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var entry models.AuditEntry
		var meta []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.ActorID,
			&entry.TargetUserID,
			&meta,
			&entry.CreatedAt,
		); err != nil {
			return nil, "", err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &entry.Meta); err != nil {
				return nil, "", fmt.Errorf("decode audit meta: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
		nextCursor = entries[len(entries)-1].ID
	}
	return entries, nextCursor, nil
}
