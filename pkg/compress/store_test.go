package compress_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goliatone/go-formmanager/pkg/compress"
)

func TestStore_OnlyCurrentGenerationCommits(t *testing.T) {
	s := compress.NewStore()

	firstCtx, first := s.Begin(context.Background(), "photo")
	_, second := s.Begin(context.Background(), "photo")

	assert.Error(t, firstCtx.Err(), "first generation should be cancelled")
	assert.False(t, s.Commit("photo", first, "stale"))
	assert.True(t, s.Commit("photo", second, "fresh"))

	got, ok := s.Lookup("photo")
	assert.True(t, ok)
	assert.Equal(t, "fresh", got)
	assert.Equal(t, 1, s.Len())
}

func TestStore_BeginDropsCommittedRecord(t *testing.T) {
	s := compress.NewStore()
	_, gen := s.Begin(context.Background(), "photo")
	s.Commit("photo", gen, "old")

	s.Begin(context.Background(), "photo")
	_, ok := s.Lookup("photo")
	assert.False(t, ok)
}

func TestStore_ConsumeClears(t *testing.T) {
	s := compress.NewStore()
	_, gen := s.Begin(context.Background(), "photo")
	s.Commit("photo", gen, "payload")

	got, ok := s.Consume("photo")
	assert.True(t, ok)
	assert.Equal(t, "payload", got)

	_, ok = s.Consume("photo")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStore_ConsumeLeavesPendingGeneration(t *testing.T) {
	s := compress.NewStore()
	_, gen := s.Begin(context.Background(), "photo")

	_, ok := s.Consume("photo")
	assert.False(t, ok)

	assert.True(t, s.Commit("photo", gen, "late"))
	got, ok := s.Consume("photo")
	assert.True(t, ok)
	assert.Equal(t, "late", got)
}

func TestStore_ClearInvalidatesPending(t *testing.T) {
	s := compress.NewStore()
	ctx, gen := s.Begin(context.Background(), "photo")
	s.Clear("photo")

	assert.Error(t, ctx.Err())
	assert.False(t, s.Commit("photo", gen, "late"))
	_, ok := s.Lookup("missing")
	assert.False(t, ok)
}
