package blogs

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/rugstore-backend/pkg/auth"
	"github.com/angelmondragon/rugstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/rugstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rugstore-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin    = auth.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	customer = auth.Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}
)

func newService(t *testing.T) *Service {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()))
	require.NoError(t, err)
	return svc
}

func TestCreateDerivesSlugAndDefaultsDate(t *testing.T) {
	svc := newService(t)
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Create(context.Background(), customer, CreateBlogInput{Title: "x"})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	blog, err := svc.Create(context.Background(), admin, CreateBlogInput{Title: "Caring for Hand-Knotted Rugs!", Category: "care"})
	require.NoError(t, err)
	assert.Equal(t, "caring-for-hand-knotted-rugs", blog.Slug)
	assert.True(t, now.Equal(blog.Date))

	dated, err := svc.Create(context.Background(), admin, CreateBlogInput{Title: "Jute Basics", Date: strPtr("2024-12-25")})
	require.NoError(t, err)
	assert.Equal(t, "2024-12-25", dated.Date.UTC().Format("2006-01-02"))

	_, err = svc.Create(context.Background(), admin, CreateBlogInput{Title: "Jute basics"})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	_, err = svc.Create(context.Background(), admin, CreateBlogInput{Title: "!!!"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateRegeneratesSlugOnTitleChange(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	blog, err := svc.Create(ctx, admin, CreateBlogInput{Title: "Old Title", Subtitle: "keep"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, admin, blog.ID, UpdateBlogInput{Content: strPtr("body")})
	require.NoError(t, err)
	assert.Equal(t, "old-title", updated.Slug)
	assert.Equal(t, "body", updated.Content)

	updated, err = svc.Update(ctx, admin, blog.ID, UpdateBlogInput{Title: strPtr("New Title")})
	require.NoError(t, err)
	assert.Equal(t, "new-title", updated.Slug)
	assert.Equal(t, "keep", updated.Subtitle)

	_, err = svc.Update(ctx, admin, uuid.New(), UpdateBlogInput{Title: strPtr("Ghost")})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListFiltersAndGet(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	titles := []struct{ title, category string }{
		{"Persian Patterns", "design"},
		{"Washing Wool", "care"},
		{"Modern PERSIAN Looks", "design"},
	}
	var ids []uuid.UUID
	for i, tc := range titles {
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		blog, err := svc.Create(ctx, admin, CreateBlogInput{Title: tc.title, Category: tc.category})
		require.NoError(t, err)
		ids = append(ids, blog.ID)
	}

	all, err := svc.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	design, err := svc.List(ctx, ListQuery{Category: "design", Search: "persian"})
	require.NoError(t, err)
	require.Len(t, design, 2)

	care, err := svc.List(ctx, ListQuery{Category: "care"})
	require.NoError(t, err)
	require.Len(t, care, 1)
	assert.Equal(t, ids[1], care[0].ID)

	got, err := svc.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "Persian Patterns", got.Title)

	require.NoError(t, svc.Delete(ctx, admin, ids[0]))
	_, err = svc.Get(ctx, ids[0])
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(svc.Delete(ctx, admin, ids[0])).Code())
}

func strPtr(s string) *string { return &s }
