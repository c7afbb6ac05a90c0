package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"navio/api/internal/models"
	"navio/api/internal/repository"
)

const uniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same
// repository serves plain calls and transaction-bound ones.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const userColumns = `id, username, email, password_hash, role, email_verified_at, deleted_at, created_at, updated_at`

type UserRepository struct {
	db querier
}

func NewUserRepository(db querier) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.EmailVerifiedAt,
		&user.DeletedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, repository.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, username, email, password_hash, role, email_verified_at, deleted_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW(), NOW()
		)
	`

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.EmailVerifiedAt,
		user.DeletedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindByIdentifier(ctx context.Context, handle string) (models.User, error) {
	query := `
		SELECT ` + userColumns + ` FROM users
		WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)
		LIMIT 1
	`
	return scanUser(r.db.QueryRow(ctx, query, handle))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) Update(ctx context.Context, id string, upd repository.UserUpdate) (models.User, error) {
	set := []string{"updated_at = NOW()"}
	args := []any{id}

	assign := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Username != nil {
		assign("username", *upd.Username)
	}
	if upd.Email != nil {
		assign("email", *upd.Email)
	}
	if upd.Role != nil {
		assign("role", *upd.Role)
	}
	if upd.PasswordHash != nil {
		assign("password_hash", upd.PasswordHash)
	}
	if upd.VerifyNow {
		set = append(set, "email_verified_at = NOW()")
	}
	if upd.Active != nil {
		if *upd.Active {
			set = append(set, "deleted_at = NULL")
		} else {
			set = append(set, "deleted_at = COALESCE(deleted_at, NOW())")
		}
	}

	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(set, ", "), userColumns,
	)

	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if isUniqueViolation(err) {
		return models.User{}, repository.ErrDuplicate
	}
	return user, err
}

func (r *UserRepository) HardDelete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, filter repository.UserFilter) ([]models.User, string, error) {
	conds := []string{"TRUE"}
	var args []any

	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		conds = append(conds, fmt.Sprintf("(username ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	switch filter.State {
	case repository.UserStateActive:
		conds = append(conds, "deleted_at IS NULL")
	case repository.UserStateInactive:
		conds = append(conds, "deleted_at IS NOT NULL")
	}
	if filter.Cursor != "" {
		args = append(args, filter.Cursor)
		conds = append(conds, fmt.Sprintf(
			"(created_at, id) < (SELECT created_at, id FROM users WHERE id = $%d)", len(args)))
	}

	args = append(args, filter.Limit+1)
	query := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d
	`, userColumns, strings.Join(conds, " AND "), len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.EmailVerifiedAt,
			&user.DeletedAt,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, "", err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(users) > filter.Limit {
		users = users[:filter.Limit]
		nextCursor = users[len(users)-1].ID
	}
	return users, nextCursor, nil
}

func (r *UserRepository) Stats(ctx context.Context) (repository.UserStats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE deleted_at IS NULL),
			COUNT(*) FILTER (WHERE deleted_at IS NOT NULL),
			COUNT(*) FILTER (WHERE email_verified_at IS NOT NULL)
		FROM users
	`
	var stats repository.UserStats
	row := r.db.QueryRow(ctx, query)
	if err := row.Scan(&stats.Total, &stats.Active, &stats.Inactive, &stats.Verified); err != nil {
		return repository.UserStats{}, err
	}
	return stats, nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role models.UserRole) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role = $1 AND deleted_at IS NULL`
	var count int
	if err := r.db.QueryRow(ctx, query, role).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
