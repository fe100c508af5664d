package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/toolshelf/internal/common"
	"github.com/dmitrijs2005/toolshelf/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/toolshelf/internal/server/testdb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newToolService(t *testing.T) *ToolService {
	t.Helper()
	return NewToolService(testdb.New(t), repomanager.NewBunRepositoryManager(), time.Second)
}

func figma() ToolInput {
	return ToolInput{Name: "Figma", Description: "Design tool", Website: "https://figma.com"}
}

func TestToolService_CRUD(t *testing.T) {
	svc := newToolService(t)
	ctx := context.Background()

	tool, err := svc.Create(ctx, figma())
	require.NoError(t, err)
	require.NotEmpty(t, tool.ID)

	got, err := svc.Get(ctx, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, "Figma", got.Name)

	in := figma()
	in.Description = "Collaborative design"
	updated, err := svc.Update(ctx, tool.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Collaborative design", updated.Description)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, tool.ID))
	_, err = svc.Get(ctx, tool.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestToolService_DuplicateName(t *testing.T) {
	svc := newToolService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, figma())
	require.NoError(t, err)
	_, err = svc.Create(ctx, figma())
	require.ErrorIs(t, err, common.ErrAlreadyExists)

	other, err := svc.Create(ctx, ToolInput{Name: "Sketch", Description: "Design", Website: "https://sketch.com"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, other.ID, figma())
	require.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestToolService_Missing(t *testing.T) {
	svc := newToolService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "bad-id")
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = svc.Update(ctx, uuid.NewString(), figma())
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.ErrorIs(t, svc.Delete(ctx, uuid.NewString()), common.ErrorNotFound)
	require.ErrorIs(t, svc.Delete(ctx, "bad-id"), common.ErrorNotFound)
}
