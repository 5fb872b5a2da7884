package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Totarae/UTMBuilder/internal/database"
	"github.com/Totarae/UTMBuilder/internal/model"
)

// URLRepositoryInterface определяет методы репозитория коротких ссылок.
type URLRepositoryInterface interface {
	Create(ctx context.Context, link *model.Link) error
	Get(ctx context.Context, keyword string) (*model.Link, error)
	Update(ctx context.Context, oldKeyword string, link *model.Link) error
	Delete(ctx context.Context, keyword string) (int64, error)
	Ping(ctx context.Context) error
}

// URLRepository реализует URLRepositoryInterface поверх database/sql.
type URLRepository struct {
	DB *database.DB
}

// NewURLRepository создаёт новый экземпляр URLRepository.
func NewURLRepository(db *database.DB) *URLRepository {
	return &URLRepository{DB: db}
}

// Create сохраняет ссылку. Если ключевое слово занято, возвращает ErrConflict.
func (r *URLRepository) Create(ctx context.Context, link *model.Link) error {
	query := `INSERT INTO links (keyword, url, title, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?)
              ON CONFLICT (keyword) DO NOTHING`

	res, err := r.DB.SQL.ExecContext(ctx, r.DB.Rebind(query),
		link.Keyword, link.URL, link.Title, link.CreatedAt, link.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("database insert error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("database insert error: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// Get извлекает ссылку по ключевому слову.
func (r *URLRepository) Get(ctx context.Context, keyword string) (*model.Link, error) {
	query := `SELECT keyword, url, title, created_at, updated_at FROM links WHERE keyword = ?`
	link := &model.Link{}
	err := r.DB.SQL.QueryRowContext(ctx, r.DB.Rebind(query), keyword).Scan(
		&link.Keyword, &link.URL, &link.Title, &link.CreatedAt, &link.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return link, nil
}

// Update изменяет ссылку, в том числе её ключевое слово.
func (r *URLRepository) Update(ctx context.Context, oldKeyword string, link *model.Link) error {
	query := `UPDATE links SET keyword = ?, url = ?, title = ?, updated_at = ? WHERE keyword = ?`
	res, err := r.DB.SQL.ExecContext(ctx, r.DB.Rebind(query),
		link.Keyword, link.URL, link.Title, link.UpdatedAt, oldKeyword,
	)
	if err != nil {
		return fmt.Errorf("database update error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("database update error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет ссылку и возвращает число удалённых строк.
func (r *URLRepository) Delete(ctx context.Context, keyword string) (int64, error) {
	res, err := r.DB.SQL.ExecContext(ctx, r.DB.Rebind(`DELETE FROM links WHERE keyword = ?`), keyword)
	if err != nil {
		return 0, fmt.Errorf("failed to delete link: %w", err)
	}
	return res.RowsAffected()
}

// Ping проверяет доступность базы данных.
func (r *URLRepository) Ping(ctx context.Context) error {
	_, err := r.DB.SQL.ExecContext(ctx, "SELECT 1")
	return err
}
