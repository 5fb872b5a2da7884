package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Totarae/UTMBuilder/internal/database"
	"github.com/Totarae/UTMBuilder/internal/model"
	"github.com/Totarae/UTMBuilder/internal/utm"
)

const metaColumns = `keyword, original_url, utm_source, utm_medium, utm_campaign, utm_term, utm_content, created_at, updated_at`

//go:generate mockgen -source=metarepository.go -destination=mocks/meta_mock.go -package=mocks MetaRepositoryInterface

// MetaRepositoryInterface определяет операции над таблицей utm_meta.
type MetaRepositoryInterface interface {
	Upsert(ctx context.Context, keyword string, data model.MetaData, now time.Time) error
	Get(ctx context.Context, keyword string) (*model.MetaRecord, error)
	Delete(ctx context.Context, keyword string) (int64, error)
	Move(ctx context.Context, from, to string, now time.Time) (bool, error)
	DistinctValues(ctx context.Context, field utm.Key, search string, limit int) ([]string, error)
}

// MetaRepository реализует MetaRepositoryInterface для PostgreSQL и SQLite.
type MetaRepository struct {
	DB *database.DB
}

// NewMetaRepository создаёт новый экземпляр MetaRepository.
func NewMetaRepository(db *database.DB) *MetaRepository {
	return &MetaRepository{DB: db}
}

// Upsert вставляет запись или обновляет существующую, сохраняя created_at.
func (r *MetaRepository) Upsert(ctx context.Context, keyword string, data model.MetaData, now time.Time) error {
	query := `INSERT INTO utm_meta (` + metaColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT (keyword) DO UPDATE SET
                  original_url = excluded.original_url,
                  utm_source   = excluded.utm_source,
                  utm_medium   = excluded.utm_medium,
                  utm_campaign = excluded.utm_campaign,
                  utm_term     = excluded.utm_term,
                  utm_content  = excluded.utm_content,
                  updated_at   = excluded.updated_at`

	_, err := r.DB.SQL.ExecContext(ctx, r.DB.Rebind(query),
		keyword, data.OriginalURL, data.Source, data.Medium, data.Campaign, data.Term, data.Content, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert utm meta: %w", err)
	}
	return nil
}

// Get извлекает запись по ключевому слову.
func (r *MetaRepository) Get(ctx context.Context, keyword string) (*model.MetaRecord, error) {
	return getMeta(ctx, r.DB.SQL, r.DB, keyword)
}

// Delete удаляет запись и возвращает число удалённых строк.
func (r *MetaRepository) Delete(ctx context.Context, keyword string) (int64, error) {
	res, err := r.DB.SQL.ExecContext(ctx, r.DB.Rebind(`DELETE FROM utm_meta WHERE keyword = ?`), keyword)
	if err != nil {
		return 0, fmt.Errorf("failed to delete utm meta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// Move переносит запись с from на to в рамках транзакции.
// Запись на to, если есть, удаляется. Возвращает false, если на from записи нет.
func (r *MetaRepository) Move(ctx context.Context, from, to string, now time.Time) (bool, error) {
	tx, err := r.DB.SQL.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, r.DB.Rebind(`SELECT id FROM utm_meta WHERE keyword = ?`), from).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to lookup utm meta: %w", err)
	}

	if _, err := tx.ExecContext(ctx, r.DB.Rebind(`DELETE FROM utm_meta WHERE keyword = ?`), to); err != nil {
		return false, fmt.Errorf("failed to clear move target: %w", err)
	}
	if _, err := tx.ExecContext(ctx, r.DB.Rebind(`UPDATE utm_meta SET keyword = ?, updated_at = ? WHERE id = ?`), to, now, id); err != nil {
		return false, fmt.Errorf("failed to move utm meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// DistinctValues возвращает уникальные непустые значения поля, содержащие search,
// отсортированные по возрастанию.
func (r *MetaRepository) DistinctValues(ctx context.Context, field utm.Key, search string, limit int) ([]string, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("unknown field %q", field)
	}
	col := string(field)

	query := fmt.Sprintf(
		`SELECT %[1]s FROM utm_meta WHERE %[1]s <> '' AND %[2]s GROUP BY %[1]s ORDER BY %[3]s LIMIT ?`,
		col, r.DB.Contains(col), r.DB.OrderBytes(col),
	)
	rows, err := r.DB.SQL.QueryContext(ctx, r.DB.Rebind(query), search, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s values: %w", col, err)
	}
	defer rows.Close()

	values := make([]string, 0, limit)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// List возвращает все записи, упорядоченные по ключевому слову.
func (r *MetaRepository) List(ctx context.Context) ([]model.MetaRecord, error) {
	rows, err := r.DB.SQL.QueryContext(ctx, `SELECT `+metaColumns+` FROM utm_meta ORDER BY keyword`)
	if err != nil {
		return nil, fmt.Errorf("failed to list utm meta: %w", err)
	}
	defer rows.Close()

	var records []model.MetaRecord
	for rows.Next() {
		var rec model.MetaRecord
		if err := rows.Scan(
			&rec.Keyword, &rec.OriginalURL, &rec.Source, &rec.Medium, &rec.Campaign,
			&rec.Term, &rec.Content, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func getMeta(ctx context.Context, q querier, db *database.DB, keyword string) (*model.MetaRecord, error) {
	query := `SELECT ` + metaColumns + ` FROM utm_meta WHERE keyword = ?`
	rec := &model.MetaRecord{}
	err := q.QueryRowContext(ctx, db.Rebind(query), keyword).Scan(
		&rec.Keyword, &rec.OriginalURL, &rec.Source, &rec.Medium, &rec.Campaign,
		&rec.Term, &rec.Content, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return rec, nil
}
