package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Totarae/UTMBuilder/internal/metadata"
	"github.com/Totarae/UTMBuilder/internal/model"
	"github.com/Totarae/UTMBuilder/internal/payload"
	"github.com/Totarae/UTMBuilder/internal/repositories"
	"github.com/Totarae/UTMBuilder/internal/util"
	"github.com/Totarae/UTMBuilder/internal/utm"
)

// Сколько раз перегенерировать ключ при коллизии.
const maxKeywordAttempts = 5

var (
	ErrLinkNotFound   = errors.New("link not found")
	ErrKeywordExists  = errors.New("keyword already in use")
	ErrInvalidKeyword = errors.New("invalid keyword")
)

// LinkHooks получает события жизненного цикла ссылки.
type LinkHooks interface {
	LinkCreated(ctx context.Context, keyword string, ok bool, values payload.Values)
	LinkEdited(ctx context.Context, oldKeyword, newKeyword string, ok bool, values payload.Values)
	LinkDeleted(ctx context.Context, keyword string, rowsAffected int64)
}

// LinkInput — поля формы создания и редактирования ссылки.
type LinkInput struct {
	URL     string
	Keyword string
	Title   string
}

type ShortenerService struct {
	Repo    repositories.URLRepositoryInterface
	Hooks   LinkHooks
	Logger  *zap.Logger
	BaseURL string
	now     func() time.Time
}

func NewShortenerService(repo repositories.URLRepositoryInterface, hooks LinkHooks, logger *zap.Logger, baseURL string) *ShortenerService {
	return &ShortenerService{
		Repo:    repo,
		Hooks:   hooks,
		Logger:  logger,
		BaseURL: baseURL,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create сохраняет ссылку и передаёт событие хукам.
// Пустое ключевое слово генерируется из URL.
func (s *ShortenerService) Create(ctx context.Context, in LinkInput, values payload.Values) (*model.Link, error) {
	longURL, err := checkURL(in.URL)
	if err != nil {
		return nil, err
	}

	now := s.now()
	link := &model.Link{URL: longURL, Title: strings.TrimSpace(in.Title), CreatedAt: now, UpdatedAt: now}

	if strings.TrimSpace(in.Keyword) != "" {
		kw, err := metadata.SanitizeKeyword(in.Keyword)
		if err != nil {
			return nil, ErrInvalidKeyword
		}
		link.Keyword = kw
		err = s.Repo.Create(ctx, link)
		if errors.Is(err, repositories.ErrConflict) {
			s.Hooks.LinkCreated(ctx, kw, false, values)
			return nil, ErrKeywordExists
		}
		if err != nil {
			s.Hooks.LinkCreated(ctx, kw, false, values)
			return nil, fmt.Errorf("failed to create link: %w", err)
		}
		s.Hooks.LinkCreated(ctx, kw, true, values)
		return link, nil
	}

	for attempt := 0; attempt < maxKeywordAttempts; attempt++ {
		link.Keyword = util.GenerateKeyword(longURL, attempt)
		err = s.Repo.Create(ctx, link)
		if errors.Is(err, repositories.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create link: %w", err)
		}
		s.Hooks.LinkCreated(ctx, link.Keyword, true, values)
		return link, nil
	}
	s.Logger.Warn("keyword generation exhausted", zap.String("url", longURL))
	return nil, ErrKeywordExists
}

// Edit изменяет ссылку. Новое ключевое слово переименовывает её.
// Пустые URL и ключевое слово оставляют прежние значения.
func (s *ShortenerService) Edit(ctx context.Context, oldKeyword string, in LinkInput, values payload.Values) (*model.Link, error) {
	old, err := metadata.SanitizeKeyword(oldKeyword)
	if err != nil {
		return nil, ErrLinkNotFound
	}
	current, err := s.Get(ctx, old)
	if err != nil {
		return nil, err
	}

	link := *current
	link.Title = strings.TrimSpace(in.Title)
	link.UpdatedAt = s.now()
	if strings.TrimSpace(in.URL) != "" {
		if link.URL, err = checkURL(in.URL); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(in.Keyword) != "" {
		if link.Keyword, err = metadata.SanitizeKeyword(in.Keyword); err != nil {
			return nil, ErrInvalidKeyword
		}
	}

	if link.Keyword != old {
		if _, err := s.Repo.Get(ctx, link.Keyword); err == nil {
			s.Hooks.LinkEdited(ctx, old, link.Keyword, false, values)
			return nil, ErrKeywordExists
		}
	}

	if err := s.Repo.Update(ctx, old, &link); err != nil {
		s.Hooks.LinkEdited(ctx, old, link.Keyword, false, values)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to update link: %w", err)
	}
	s.Hooks.LinkEdited(ctx, old, link.Keyword, true, values)
	return &link, nil
}

// Delete удаляет ссылку и возвращает число удалённых строк.
func (s *ShortenerService) Delete(ctx context.Context, keyword string) (int64, error) {
	kw, err := metadata.SanitizeKeyword(keyword)
	if err != nil {
		return 0, nil
	}
	n, err := s.Repo.Delete(ctx, kw)
	if err != nil {
		return 0, fmt.Errorf("failed to delete link: %w", err)
	}
	s.Hooks.LinkDeleted(ctx, kw, n)
	return n, nil
}

// Get возвращает ссылку по ключевому слову.
func (s *ShortenerService) Get(ctx context.Context, keyword string) (*model.Link, error) {
	kw, err := metadata.SanitizeKeyword(keyword)
	if err != nil {
		return nil, ErrLinkNotFound
	}
	link, err := s.Repo.Get(ctx, kw)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}

// ShortURL возвращает полный короткий адрес ссылки.
func (s *ShortenerService) ShortURL(keyword string) string {
	return util.ShortURL(s.BaseURL, keyword)
}

func (s *ShortenerService) Ping(ctx context.Context) error {
	return s.Repo.Ping(ctx)
}

func checkURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", utm.NewURLError(utm.ErrEmptyURL)
	}
	if !utm.IsAbsoluteURL(raw) {
		return "", utm.NewURLError(utm.ErrInvalidURL)
	}
	return raw, nil
}
