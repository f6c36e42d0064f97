package blogs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/rugstore-backend/pkg/auth"
	"github.com/angelmondragon/rugstore-backend/pkg/db"
	"github.com/angelmondragon/rugstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rugstore-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const blogNotFound = "Blog not found"

func init() {
	slug.Lowercase = true
}

// Service manages blog posts. Reads are public; writes need the content capability.
type Service struct {
	repo *Repository
	now  func() time.Time
}

func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: repo, now: time.Now}, nil
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, input CreateBlogInput) (*BlogDTO, error) {
	if err := requireContent(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	postSlug, err := makeSlug(title)
	if err != nil {
		return nil, err
	}
	date := s.now().UTC()
	if input.Date != nil && strings.TrimSpace(*input.Date) != "" {
		if date, err = parseDate(*input.Date); err != nil {
			return nil, err
		}
	}

	blog := &models.Blog{
		Category: strings.TrimSpace(input.Category),
		Title:    title,
		Subtitle: strings.TrimSpace(input.Subtitle),
		Content:  input.Content,
		Image:    strings.TrimSpace(input.Image),
		Slug:     postSlug,
		Date:     date,
	}
	if err := s.repo.Create(ctx, blog); err != nil {
		return nil, mapWriteError(err, "create blog")
	}
	dto := fromModel(*blog)
	return &dto, nil
}

func (s *Service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateBlogInput) (*BlogDTO, error) {
	if err := requireContent(actor); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		postSlug, err := makeSlug(title)
		if err != nil {
			return nil, err
		}
		updates["title"] = title
		updates["slug"] = postSlug
	}
	if input.Category != nil {
		updates["category"] = strings.TrimSpace(*input.Category)
	}
	if input.Subtitle != nil {
		updates["subtitle"] = strings.TrimSpace(*input.Subtitle)
	}
	if input.Content != nil {
		updates["content"] = *input.Content
	}
	if input.Image != nil {
		updates["image"] = strings.TrimSpace(*input.Image)
	}
	if input.Date != nil {
		date, err := parseDate(*input.Date)
		if err != nil {
			return nil, err
		}
		updates["date"] = date
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, mapWriteError(err, "update blog")
		}
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if err := requireContent(actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapWriteError(err, "delete blog")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*BlogDTO, error) {
	blog, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapWriteError(err, "load blog")
	}
	dto := fromModel(*blog)
	return &dto, nil
}

func (s *Service) List(ctx context.Context, q ListQuery) ([]BlogDTO, error) {
	q.Category = strings.TrimSpace(q.Category)
	q.Search = strings.TrimSpace(q.Search)
	rows, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list blogs")
	}
	out := make([]BlogDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

func makeSlug(title string) (string, error) {
	value := slug.Make(title)
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "title must contain letters or digits")
	}
	return value, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, fmt.Errorf("parse date %q: %w", value, err), "invalid date")
	}
	return t.UTC(), nil
}

func requireContent(actor auth.Actor) error {
	if !actor.IsAuthenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !actor.Can(auth.CapManageContent) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	return nil
}

func mapWriteError(err error, op string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, blogNotFound)
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.New(pkgerrors.CodeConflict, "a blog with this title already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
