package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/entity"
)

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db, zap.NewNop())

	hod := &entity.User{
		Name:        "Ben Reyes",
		Email:       "ben@example.com",
		Roles:       entity.Roles(entity.RoleHOD, entity.RoleTechnicalReviewer),
		Departments: entity.NewDepartmentSet("Engineering Dept", "IT"),
		LarkOpenID:  "ou_123",
	}
	admin := &entity.User{Name: "Root", Email: "root@example.com", Roles: entity.Roles(entity.RoleAdmin)}
	require.NoError(t, repo.Create(ctx, hod))
	require.NoError(t, repo.Create(ctx, admin))

	got, err := repo.GetByID(ctx, hod.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ben Reyes", got.Name)
	assert.True(t, got.HasRole(entity.RoleHOD))
	assert.True(t, got.HasRole(entity.RoleTechnicalReviewer))
	assert.Equal(t, []string{"Engineering Dept", "IT"}, got.Departments.Slice())
	assert.Equal(t, "ou_123", got.LarkOpenID)

	missing, err := repo.GetByID(ctx, 404)
	require.NoError(t, err)
	assert.Nil(t, missing)

	reviewers, err := repo.ListByRole(ctx, entity.RoleTechnicalReviewer)
	require.NoError(t, err)
	require.Len(t, reviewers, 1)
	assert.Equal(t, hod.ID, reviewers[0].ID)

	purchasers, err := repo.ListByRole(ctx, entity.RolePurchasing)
	require.NoError(t, err)
	assert.Empty(t, purchasers)

	err = repo.Create(ctx, &entity.User{Name: "Dup", Email: "root@example.com"})
	assert.True(t, errors.Is(err, port.ErrConflict))
}
