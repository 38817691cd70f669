package repository

import (
	"context"
	"time"

	"case-service/internal/models"
	"case-service/internal/retry"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RequestRepository struct {
	db      *pgxpool.Pool
	getter  *trmpgx.CtxGetter
	psql    sq.StatementBuilderType
	retrier retry.Retrier
}

func NewRequestRepository(db *pgxpool.Pool, c *trmpgx.CtxGetter, r retry.Retrier) *RequestRepository {
	return &RequestRepository{
		db:      db,
		getter:  c,
		psql:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		retrier: r,
	}
}

var requestColumns = []string{
	"r.id",
	"r.pin_user_id",
	"r.title",
	"r.description",
	"r.status",
	"r.category_id",
	"c.name",
	"r.assigned_to",
	"r.view_count",
	"r.created_at",
	"r.updated_at",
	"r.completed_at",
}

func scanRequest(row pgx.Row) (*models.Request, error) {
	req := &models.Request{Shortlist: make([]*models.Shortlistee, 0)}
	var status string

	err := row.Scan(
		&req.ID,
		&req.PinUserID,
		&req.Title,
		&req.Description,
		&status,
		&req.CategoryID,
		&req.CategoryName,
		&req.AssignedTo,
		&req.ViewCount,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Status = models.RequestStatus(status)
	return req, nil
}

func (r *RequestRepository) Create(ctx context.Context, req *models.Request) error {
	query := r.psql.Insert("requests").
		Columns("id", "pin_user_id", "title", "description", "status", "category_id").
		Values(req.ID, req.PinUserID, req.Title, req.Description, string(req.Status), req.CategoryID).
		Suffix("RETURNING created_at, updated_at")

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)

	err = r.retrier.Do(ctx, func() error {
		return conn.QueryRow(ctx, sql, args...).Scan(&req.CreatedAt, &req.UpdatedAt)
	})

	return wrapDBError(err)
}

func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	query := r.psql.Select(requestColumns...).
		From("requests r").
		LeftJoin("categories c ON c.id = r.category_id").
		Where(sq.Eq{"r.id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)
	var req *models.Request

	err = r.retrier.Do(ctx, func() error {
		var scanErr error
		req, scanErr = scanRequest(conn.QueryRow(ctx, sql, args...))
		return scanErr
	})
	if err != nil {
		return nil, wrapDBError(err)
	}

	if err := r.attachShortlists(ctx, []*models.Request{req}); err != nil {
		return nil, err
	}

	return req, nil
}

// GetByIDForUpdate locks the request row for the rest of the surrounding
// transaction before reading it.
func (r *RequestRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	sql, args, err := r.psql.Select("id").
		From("requests").
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)

	err = r.retrier.Do(ctx, func() error {
		var locked uuid.UUID
		return conn.QueryRow(ctx, sql, args...).Scan(&locked)
	})
	if err != nil {
		return nil, wrapDBError(err)
	}

	return r.GetByID(ctx, id)
}

func (r *RequestRepository) List(ctx context.Context, f models.RequestFilter) ([]*models.Request, error) {
	query := r.psql.Select(requestColumns...).
		From("requests r").
		LeftJoin("categories c ON c.id = r.category_id").
		OrderBy("r.created_at DESC", "r.id")

	if f.Scope == models.ScopeShortlisted && f.CSRID != nil {
		query = query.
			Join("request_shortlists s ON s.request_id = r.id").
			Where(sq.Eq{
				"s.csr_user_id": *f.CSRID,
				"r.status":      string(models.RequestStatusPending),
			})
	}
	if f.Status != nil {
		query = query.Where(sq.Eq{"r.status": string(*f.Status)})
	}
	if f.PinUserID != nil {
		query = query.Where(sq.Eq{"r.pin_user_id": *f.PinUserID})
	}
	if f.CategoryID != nil {
		query = query.Where(sq.Eq{"r.category_id": *f.CategoryID})
	}
	if f.Query != "" {
		pattern := "%" + f.Query + "%"
		query = query.Where(sq.Or{
			sq.ILike{"r.title": pattern},
			sq.ILike{"r.description": pattern},
		})
	}
	if f.From != nil {
		query = query.Where(sq.GtOrEq{"r.created_at": *f.From})
	}
	if f.To != nil {
		query = query.Where(sq.LtOrEq{"r.created_at": *f.To})
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit).Offset(f.Offset)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)
	requests := make([]*models.Request, 0)

	err = r.retrier.Do(ctx, func() error {
		requests = requests[:0]

		rows, err := conn.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			req, err := scanRequest(rows)
			if err != nil {
				return err
			}
			requests = append(requests, req)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, wrapDBError(err)
	}

	if err := r.attachShortlists(ctx, requests); err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *RequestRepository) attachShortlists(ctx context.Context, requests []*models.Request) error {
	if len(requests) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*models.Request, len(requests))
	ids := make([]uuid.UUID, 0, len(requests))
	for _, req := range requests {
		byID[req.ID] = req
		ids = append(ids, req.ID)
	}

	sql, args, err := r.psql.Select("request_id", "csr_user_id", "shortlisted_at").
		From("request_shortlists").
		Where(sq.Eq{"request_id": ids}).
		OrderBy("shortlisted_at", "csr_user_id").
		ToSql()
	if err != nil {
		return err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)

	err = r.retrier.Do(ctx, func() error {
		for _, req := range requests {
			req.Shortlist = req.Shortlist[:0]
		}

		rows, err := conn.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			s := &models.Shortlistee{}
			if err := rows.Scan(&s.RequestID, &s.CSRID, &s.ShortlistedAt); err != nil {
				return err
			}
			if req, ok := byID[s.RequestID]; ok {
				req.Shortlist = append(req.Shortlist, s)
			}
		}

		return rows.Err()
	})

	return wrapDBError(err)
}

func (r *RequestRepository) Update(ctx context.Context, id uuid.UUID, edit models.RequestEdit) error {
	query := r.psql.Update("requests").
		Set("title", edit.Title).
		Set("description", edit.Description).
		Set("category_id", edit.CategoryID).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id, "status": string(models.RequestStatusPending)})

	return r.execOne(ctx, query)
}

func (r *RequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := r.psql.Delete("requests").
		Where(sq.Eq{"id": id, "status": string(models.RequestStatusPending)})

	return r.execOne(ctx, query)
}

func (r *RequestRepository) Assign(ctx context.Context, id, csrID uuid.UUID) error {
	query := r.psql.Update("requests").
		Set("status", string(models.RequestStatusAssigned)).
		Set("assigned_to", csrID).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id, "status": string(models.RequestStatusPending)})

	return r.execOne(ctx, query)
}

func (r *RequestRepository) Complete(ctx context.Context, id uuid.UUID) (time.Time, error) {
	sql, args, err := r.psql.Update("requests").
		Set("status", string(models.RequestStatusCompleted)).
		Set("completed_at", sq.Expr("now()")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id, "status": string(models.RequestStatusAssigned)}).
		Suffix("RETURNING completed_at").
		ToSql()
	if err != nil {
		return time.Time{}, err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)
	var completedAt time.Time

	err = r.retrier.Do(ctx, func() error {
		return conn.QueryRow(ctx, sql, args...).Scan(&completedAt)
	})

	return completedAt, wrapDBError(err)
}

func (r *RequestRepository) ClearShortlist(ctx context.Context, id uuid.UUID) error {
	query := r.psql.Delete("request_shortlists").
		Where(sq.Eq{"request_id": id})

	_, err := r.exec(ctx, query)
	return err
}

// AddShortlistee reports false when the CSR was already on the shortlist.
func (r *RequestRepository) AddShortlistee(ctx context.Context, id, csrID uuid.UUID) (bool, error) {
	query := r.psql.Insert("request_shortlists").
		Columns("request_id", "csr_user_id").
		Values(id, csrID).
		Suffix("ON CONFLICT DO NOTHING")

	affected, err := r.exec(ctx, query)
	return affected > 0, err
}

// RemoveShortlistee reports false when the CSR was not on the shortlist.
func (r *RequestRepository) RemoveShortlistee(ctx context.Context, id, csrID uuid.UUID) (bool, error) {
	query := r.psql.Delete("request_shortlists").
		Where(sq.Eq{"request_id": id, "csr_user_id": csrID})

	affected, err := r.exec(ctx, query)
	return affected > 0, err
}

// IncrementView is not idempotent, so it runs exactly once without the
// retrier.
func (r *RequestRepository) IncrementView(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.psql.Update("requests").
		Set("view_count", sq.Expr("view_count + 1")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.getter.DefaultTrOrDB(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return wrapDBError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *RequestRepository) execOne(ctx context.Context, query sq.Sqlizer) error {
	affected, err := r.exec(ctx, query)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RequestRepository) exec(ctx context.Context, query sq.Sqlizer) (int64, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
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

	return affected, wrapDBError(err)
}
