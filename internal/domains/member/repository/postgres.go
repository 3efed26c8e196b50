package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library-backend/internal/domains/member/model"
	"library-backend/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const memberColumns = `code, name, is_penalized, penalized_at, version`

// postgresRepository implements RepositoryInterface.
// Borrowed books live in member_loans, ordered by position.
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM members`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) InsertMany(ctx context.Context, members []model.Member) (int, error) {
	if len(members) == 0 {
		return 0, nil
	}

	inserted := 0
	err := database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		for _, m := range members {
			version := m.Version
			if version == 0 {
				version = 1
			}

			tag, err := tx.Exec(ctx, `
				INSERT INTO members (code, name, is_penalized, penalized_at, version)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (code) DO NOTHING
			`, m.Code, m.Name, m.IsPenalized, m.PenalizedAt, version)
			if err != nil {
				return fmt.Errorf("failed to insert member %s: %w", m.Code, err)
			}
			if tag.RowsAffected() == 0 {
				continue
			}

			if err := InsertLoans(ctx, tx, m.Code, m.BookDetail); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]model.Member, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+memberColumns+` FROM members ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}

	members, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Member])
	if err != nil {
		return nil, fmt.Errorf("failed to scan members: %w", err)
	}

	loans, err := r.loadAllLoans(ctx)
	if err != nil {
		return nil, err
	}

	for i := range members {
		members[i].BookDetail = loans[members[i].Code]
		members[i].Normalize()
	}
	return members, nil
}

func (r *postgresRepository) GetByCode(ctx context.Context, code string) (*model.Member, error) {
	return GetMember(ctx, r.pool, code, false)
}

func (r *postgresRepository) ClearExpiredPenalties(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE members
		SET is_penalized = FALSE, penalized_at = NULL, version = version + 1
		WHERE is_penalized AND penalized_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired penalties: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *postgresRepository) loadAllLoans(ctx context.Context) (map[string][]model.BorrowedBook, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT member_code, book_code, borrowed_at
		FROM member_loans
		ORDER BY member_code, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	defer rows.Close()

	loans := make(map[string][]model.BorrowedBook)
	for rows.Next() {
		var memberCode string
		var entry model.BorrowedBook
		if err := rows.Scan(&memberCode, &entry.Code, &entry.BorrowedAt); err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans[memberCode] = append(loans[memberCode], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read loans: %w", err)
	}
	return loans, nil
}

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetMember loads a member and its borrowed list. With forUpdate the
// member row is locked until the surrounding transaction ends.
func GetMember(ctx context.Context, q Querier, code string, forUpdate bool) (*model.Member, error) {
	sql := `SELECT ` + memberColumns + ` FROM members WHERE code = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}

	rows, err := q.Query(ctx, sql, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	member, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Member])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewMemberNotFoundError(code)
		}
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}

	rows, err = q.Query(ctx, `
		SELECT book_code, borrowed_at
		FROM member_loans
		WHERE member_code = $1
		ORDER BY position
	`, code)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	member.BookDetail, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.BorrowedBook])
	if err != nil {
		return nil, fmt.Errorf("failed to scan loans: %w", err)
	}

	member.Normalize()
	return member, nil
}

// InsertLoans writes the borrowed list of a member starting at position 0.
func InsertLoans(ctx context.Context, tx pgx.Tx, memberCode string, loans []model.BorrowedBook) error {
	for i, entry := range loans {
		_, err := tx.Exec(ctx, `
			INSERT INTO member_loans (member_code, position, book_code, borrowed_at)
			VALUES ($1, $2, $3, $4)
		`, memberCode, i, entry.Code, entry.BorrowedAt)
		if err != nil {
			return fmt.Errorf("failed to insert loan for %s: %w", memberCode, err)
		}
	}
	return nil
}
