package blogs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/rugstore-backend/api/middleware"
	blogsvc "github.com/angelmondragon/rugstore-backend/internal/blogs"
	"github.com/angelmondragon/rugstore-backend/pkg/auth"
	"github.com/angelmondragon/rugstore-backend/pkg/enums"
	"github.com/google/uuid"
)

type stubBlogService struct {
	Service
	lastQuery blogsvc.ListQuery
	lastTitle string
	lastActor auth.Actor
}

func (s *stubBlogService) List(ctx context.Context, q blogsvc.ListQuery) ([]blogsvc.BlogDTO, error) {
	s.lastQuery = q
	return []blogsvc.BlogDTO{}, nil
}

func (s *stubBlogService) Create(ctx context.Context, actor auth.Actor, input blogsvc.CreateBlogInput) (*blogsvc.BlogDTO, error) {
	s.lastTitle, s.lastActor = input.Title, actor
	return &blogsvc.BlogDTO{ID: uuid.New(), Title: input.Title}, nil
}

func TestBlogListForwardsQuery(t *testing.T) {
	svc := &stubBlogService{}
	req := httptest.NewRequest(http.MethodGet, "/api/blogs?category=Care&search=wool", nil)
	resp := httptest.NewRecorder()

	BlogList(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastQuery.Category != "Care" || svc.lastQuery.Search != "wool" {
		t.Fatalf("unexpected query %+v", svc.lastQuery)
	}
}

func TestBlogCreateForwardsActor(t *testing.T) {
	svc := &stubBlogService{}
	admin := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	req := httptest.NewRequest(http.MethodPost, "/api/blogs", strings.NewReader(`{"title":"Caring for Wool Rugs","category":"Care"}`))
	req = req.WithContext(middleware.WithActor(req.Context(), admin))
	resp := httptest.NewRecorder()

	BlogCreate(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.lastTitle != "Caring for Wool Rugs" || svc.lastActor != admin {
		t.Fatalf("unexpected call %q %+v", svc.lastTitle, svc.lastActor)
	}
}

func TestBlogCreateRequiresTitle(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/blogs", strings.NewReader(`{"category":"Care"}`))
	resp := httptest.NewRecorder()
	BlogCreate(&stubBlogService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
