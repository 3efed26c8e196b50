package repository

import (
	"context"
	"errors"
	"fmt"

	"library-backend/internal/domains/book/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookColumns = `code, title, author, stock, version`

// postgresRepository implements RepositoryInterface
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM books`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return count, nil
}

// InsertMany sends one batch; conflicts on code are ignored.
func (r *postgresRepository) InsertMany(ctx context.Context, books []model.Book) (int, error) {
	if len(books) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO books (code, title, author, stock, version)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, b := range books {
		if b.Stock < 0 {
			return 0, fmt.Errorf("%w: code=%s", model.ErrNegativeStock, b.Code)
		}
		version := b.Version
		if version == 0 {
			version = 1
		}
		batch.Queue(query, b.Code, b.Title, b.Author, b.Stock, version)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range books {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert books: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]model.Book, error) {
	return r.query(ctx, `SELECT `+bookColumns+` FROM books ORDER BY id`)
}

func (r *postgresRepository) ListAvailable(ctx context.Context) ([]model.Book, error) {
	return r.query(ctx, `SELECT `+bookColumns+` FROM books WHERE stock > 0 ORDER BY id`)
}

func (r *postgresRepository) GetByCode(ctx context.Context, code string) (*model.Book, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+bookColumns+` FROM books WHERE code = $1`, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	book, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Book])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewBookNotFoundError(code)
		}
		return nil, fmt.Errorf("failed to scan book: %w", err)
	}
	return book, nil
}

func (r *postgresRepository) query(ctx context.Context, sql string, args ...any) ([]model.Book, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}

	books, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		return nil, fmt.Errorf("failed to scan books: %w", err)
	}
	return books, nil
}
