package repository

import (
	"context"
	"errors"
	"fmt"

	bookModel "library-backend/internal/domains/book/model"
	"library-backend/internal/domains/lending/model"
	memberModel "library-backend/internal/domains/member/model"
	memberRepo "library-backend/internal/domains/member/repository"
	"library-backend/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresRepository locks the member row, then the book row, inside one
// transaction. Writes are still version-checked.
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

type mutateResult struct {
	member *memberModel.Member
	book   *bookModel.Book
}

func (r *postgresRepository) Mutate(ctx context.Context, memberCode, bookCode string, fn MutateFunc) (*memberModel.Member, *bookModel.Book, error) {
	res, err := database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (mutateResult, error) {
		member, err := memberRepo.GetMember(ctx, tx, memberCode, true)
		if err != nil && !memberModel.IsNotFoundError(err) {
			return mutateResult{}, err
		}

		book, err := getBookForUpdate(ctx, tx, bookCode)
		if err != nil && !bookModel.IsNotFoundError(err) {
			return mutateResult{}, err
		}

		if err := fn(member, book); err != nil {
			return mutateResult{}, err
		}

		if book != nil {
			if err := updateBook(ctx, tx, book); err != nil {
				return mutateResult{}, err
			}
		}
		if member != nil {
			if err := updateMember(ctx, tx, member); err != nil {
				return mutateResult{}, err
			}
		}

		return mutateResult{member: member, book: book}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	return res.member, res.book, nil
}

func getBookForUpdate(ctx context.Context, tx pgx.Tx, code string) (*bookModel.Book, error) {
	rows, err := tx.Query(ctx, `
		SELECT code, title, author, stock, version
		FROM books
		WHERE code = $1
		FOR UPDATE
	`, code)
	if err != nil {
		return nil, fmt.Errorf("failed to lock book: %w", err)
	}

	book, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[bookModel.Book])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bookModel.NewBookNotFoundError(code)
		}
		return nil, fmt.Errorf("failed to scan book: %w", err)
	}
	return book, nil
}

func updateBook(ctx context.Context, tx pgx.Tx, book *bookModel.Book) error {
	if book.Stock < 0 {
		return fmt.Errorf("%w: code=%s", bookModel.ErrNegativeStock, book.Code)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE books
		SET stock = $1, version = version + 1
		WHERE code = $2 AND version = $3
	`, book.Stock, book.Code, book.Version)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrConcurrentUpdate
	}

	book.Version++
	return nil
}

// updateMember rewrites the member row and replaces its borrowed list.
func updateMember(ctx context.Context, tx pgx.Tx, member *memberModel.Member) error {
	tag, err := tx.Exec(ctx, `
		UPDATE members
		SET is_penalized = $1, penalized_at = $2, version = version + 1
		WHERE code = $3 AND version = $4
	`, member.IsPenalized, member.PenalizedAt, member.Code, member.Version)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrConcurrentUpdate
	}

	if _, err := tx.Exec(ctx, `DELETE FROM member_loans WHERE member_code = $1`, member.Code); err != nil {
		return fmt.Errorf("failed to clear loans: %w", err)
	}
	if err := memberRepo.InsertLoans(ctx, tx, member.Code, member.BookDetail); err != nil {
		return err
	}

	member.Version++
	return nil
}
