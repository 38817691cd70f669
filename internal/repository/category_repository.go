package repository

import (
	"context"

	"case-service/internal/models"
	"case-service/internal/retry"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoryRepository struct {
	db      *pgxpool.Pool
	getter  *trmpgx.CtxGetter
	psql    sq.StatementBuilderType
	retrier retry.Retrier
}

func NewCategoryRepository(db *pgxpool.Pool, c *trmpgx.CtxGetter, r retry.Retrier) *CategoryRepository {
	return &CategoryRepository{
		db:      db,
		getter:  c,
		psql:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		retrier: r,
	}
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	query := r.psql.Insert("categories").
		Columns("id", "name").
		Values(c.ID, c.Name).
		Suffix("RETURNING created_at, updated_at")

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)

	err = r.retrier.Do(ctx, func() error {
		return conn.QueryRow(ctx, sql, args...).Scan(&c.CreatedAt, &c.UpdatedAt)
	})

	return wrapDBError(err)
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	query := r.psql.Select("id", "name", "created_at", "updated_at").
		From("categories").
		Where(sq.Eq{"id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)
	c := &models.Category{}

	err = r.retrier.Do(ctx, func() error {
		return conn.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	})
	if err != nil {
		return nil, wrapDBError(err)
	}

	return c, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	return r.listBy(ctx, nil)
}

func (r *CategoryRepository) Search(ctx context.Context, name string) ([]*models.Category, error) {
	return r.listBy(ctx, sq.ILike{"name": "%" + name + "%"})
}

func (r *CategoryRepository) listBy(ctx context.Context, where sq.Sqlizer) ([]*models.Category, error) {
	query := r.psql.Select("id", "name", "created_at", "updated_at").
		From("categories").
		OrderBy("name")
	if where != nil {
		query = query.Where(where)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)
	categories := make([]*models.Category, 0)

	err = r.retrier.Do(ctx, func() error {
		categories = categories[:0]

		rows, err := conn.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			c := &models.Category{}
			if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
				return err
			}
			categories = append(categories, c)
		}

		return rows.Err()
	})

	return categories, wrapDBError(err)
}

func (r *CategoryRepository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	query := r.psql.Update("categories").
		Set("name", name).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id})

	return r.execOne(ctx, query)
}

// Delete removes the category; requests pointing at it keep existing with a
// NULL category_id (ON DELETE SET NULL).
func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := r.psql.Delete("categories").
		Where(sq.Eq{"id": id})

	return r.execOne(ctx, query)
}

func (r *CategoryRepository) execOne(ctx context.Context, query sq.Sqlizer) error {
	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)
	var affected int64

	err = r.retrier.Do(ctx, func() error {
		tag, execErr := conn.Exec(ctx, sql, args...)
		if execErr != nil {
			return execErr
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return wrapDBError(err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
