package draft

import (
	"context"
	"testing"

	"github.com/mwantia/godraft/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinderPrepare_CopiesAndReuses(t *testing.T) {
	env := newTestEnv(t)
	binder := NewBinder(env.manager)
	ctx := context.Background()

	source := env.storeFile(t, "avatar", "profile", "avatar", 42)

	first, err := binder.Prepare(ctx, []uint{source.ID}, nil)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := binder.Prepare(ctx, []uint{source.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	copies, err := env.store.FindFilesByReference(ctx, models.DraftComponent, models.DraftFileArea, source.ID)
	require.NoError(t, err)
	assert.Len(t, copies, 1)
}

func TestBinder_EditorDiffersFromOwner(t *testing.T) {
	env := newTestEnv(t)
	binder := NewBinder(env.manager)
	ctx := context.Background()

	owner, editor := int64(9), int64(5)
	source := env.storeFile(t, "avatar", "profile", "avatar", 42)
	source.UserID = &owner
	require.NoError(t, env.store.UpdateFile(ctx, source))

	first, err := binder.Prepare(ctx, []uint{source.ID}, &editor)
	require.NoError(t, err)
	second, err := binder.Prepare(ctx, []uint{source.ID}, &editor)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	dest := Destination{Component: "profile", FileArea: "avatar", ItemID: 42, ContextID: 1}
	ids, err := binder.Commit(ctx, second, []uint{source.ID}, dest, &editor)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	files, err := env.store.ListFiles(ctx, "profile", "avatar", 42)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, ids[0], files[0].ID)
	assert.Equal(t, source.ContentHash, files[0].ContentHash)
	assert.True(t, env.blobs.Exists(source.ContentHash))
}

func TestBinderPrepare_MissingFileGetsPlaceholder(t *testing.T) {
	env := newTestEnv(t)
	binder := NewBinder(env.manager)
	ctx := context.Background()

	ids, err := binder.Prepare(ctx, []uint{4040}, nil)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	draft, err := env.manager.FindDraft(ctx, ids[0])
	require.NoError(t, err)
	assert.True(t, draft.IsPlaceholder())
}

func TestBinderPrepare_EmptyField(t *testing.T) {
	env := newTestEnv(t)
	binder := NewBinder(env.manager)

	ids, err := binder.Prepare(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Greater(t, ids[0], int64(0))
}

func TestBinderCommit(t *testing.T) {
	env := newTestEnv(t)
	binder := NewBinder(env.manager)
	ctx := context.Background()

	dest := Destination{Component: "profile", FileArea: "avatar", ItemID: 42, ContextID: 7}

	kept := env.storeFile(t, "kept", "profile", "avatar", 42)
	replaced := env.storeFile(t, "replaced", "profile", "avatar", 42)
	unrelated := env.storeFile(t, "unrelated", "course", "overview", 1)
	env.storeFile(t, "new upload", models.DraftComponent, models.DraftFileArea, 9001)

	placeholder, err := env.manager.CreateEmptyDraftFile(ctx, 9002, nil)
	require.NoError(t, err)

	ids, err := binder.Commit(ctx,
		[]int64{9001, int64(kept.ID), 9002},
		[]uint{kept.ID, replaced.ID, unrelated.ID},
		dest, nil)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, kept.ID, ids[1])

	promoted, err := env.store.GetFile(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "profile", promoted.Component)
	assert.Equal(t, int64(42), promoted.ItemID)

	_, err = env.store.GetFile(ctx, replaced.ID)
	assert.Error(t, err)
	assert.False(t, env.blobs.Exists(replaced.ContentHash))

	_, err = env.store.GetFile(ctx, unrelated.ID)
	assert.NoError(t, err)

	_, err = env.store.GetFile(ctx, placeholder.ID)
	assert.Error(t, err)
}

func TestBinderCommit_OtherUsersDraftIsNotPromoted(t *testing.T) {
	env := newTestEnv(t)
	binder := NewBinder(env.manager)
	ctx := context.Background()

	owner := int64(1)
	draft := env.storeFile(t, "mine", models.DraftComponent, models.DraftFileArea, 9100)
	draft.UserID = &owner
	require.NoError(t, env.store.UpdateFile(ctx, draft))

	other := int64(2)
	_, err := binder.Commit(ctx, []int64{9100}, nil, Destination{Component: "profile", FileArea: "avatar", ItemID: 1}, &other)
	require.NoError(t, err)

	still, err := env.manager.FindDraft(ctx, 9100)
	require.NoError(t, err)
	assert.True(t, still.IsDraft())
}

func TestBinderCommit_ForeignDraftIsNotAFileID(t *testing.T) {
	env := newTestEnv(t)
	binder := NewBinder(env.manager)
	ctx := context.Background()

	owner, other := int64(1), int64(2)
	draft := env.storeFile(t, "mine", models.DraftComponent, models.DraftFileArea, 9100)
	draft.UserID = &owner
	require.NoError(t, env.store.UpdateFile(ctx, draft))

	ids, err := binder.Commit(ctx, []int64{9100}, nil, Destination{Component: "profile", FileArea: "avatar", ItemID: 1}, &other)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []int64
	}{
		{name: "empty", value: "", want: nil},
		{name: "single", value: "42", want: []int64{42}},
		{name: "json numbers", value: "[1, 2, 3]", want: []int64{1, 2, 3}},
		{name: "json strings", value: `["7", " 8 "]`, want: []int64{7, 8}},
		{name: "large json id", value: "[4611686018427387903]", want: []int64{4611686018427387903}},
		{name: "comma separated", value: "1,2,,3", want: []int64{1, 2, 3}},
		{name: "mixed delimiters", value: "4; 5 6", want: []int64{4, 5, 6}},
		{name: "skips zero and junk", value: "0,abc,-3,9", want: []int64{9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseIDs(tt.value)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
