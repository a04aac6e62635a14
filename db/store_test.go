package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postvibe/db"
	"postvibe/models"
)

func testStore(t *testing.T) *db.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "postvibe.db")
	require.NoError(t, db.Migrate(path))

	store, err := db.NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func storedPost(id int64, keyword string) models.Post {
	return models.Post{
		Id:                id,
		CreatedAt:         time.Now().UTC().Truncate(time.Second),
		AuthorHandle:      "someone",
		AuthorDisplayName: "Someone",
		AvatarUrl:         "https://example.com/avatar.png",
		Text:              "a post about " + keyword,
		SentimentLabel:    models.SentimentPositive,
		SentimentScore:    80,
		KeywordSearchTerm: keyword,
		StoredAt:          time.Now().UTC().Truncate(time.Second),
	}
}

func TestHasPost(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	exists, err := store.HasPost(ctx, 1)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.CreatePost(ctx, storedPost(1, "coffee")))

	exists, err = store.HasPost(ctx, 1)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreatePostDuplicateIdFails(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreatePost(ctx, storedPost(1, "coffee")))

	err := store.CreatePost(ctx, storedPost(1, "tea"))
	assert.ErrorIs(t, err, db.ErrDatabase)

	// The original row survives the failed insert.
	posts, err := store.RecentPosts(ctx, "coffee", "", 10)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestCreatePostRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	post := storedPost(7, "weather")
	post.Geo = &models.Geo{Latitude: 59.91, Longitude: 10.75}
	post.Address = "Oslo, Norway"
	post.LocationSearchTerm = "oslo"
	require.NoError(t, store.CreatePost(ctx, post))

	posts, err := store.RecentPosts(ctx, "weather", "Oslo, Norway", 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	got := posts[0]
	assert.Equal(t, post.Id, got.Id)
	assert.True(t, post.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, post.AuthorHandle, got.AuthorHandle)
	assert.Equal(t, post.Text, got.Text)
	assert.Equal(t, post.Geo, got.Geo)
	assert.Equal(t, post.Address, got.Address)
	assert.Equal(t, post.SentimentLabel, got.SentimentLabel)
	assert.Equal(t, post.SentimentScore, got.SentimentScore)
	assert.Equal(t, post.KeywordSearchTerm, got.KeywordSearchTerm)
	assert.Equal(t, post.LocationSearchTerm, got.LocationSearchTerm)
	assert.True(t, post.StoredAt.Equal(got.StoredAt))
}

func TestCreatePostWithoutGeo(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreatePost(ctx, storedPost(7, "weather")))

	posts, err := store.RecentPosts(ctx, "weather", "", 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Nil(t, posts[0].Geo)
}

func TestRecentPostsOrderAndLimit(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := int64(1); i <= 5; i++ {
		post := storedPost(i, "coffee")
		post.StoredAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.CreatePost(ctx, post))
	}

	posts, err := store.RecentPosts(ctx, "coffee", "", 3)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	// Newest stored first.
	assert.Equal(t, int64(5), posts[0].Id)
	assert.Equal(t, int64(4), posts[1].Id)
	assert.Equal(t, int64(3), posts[2].Id)
}

func TestRecentPostsFiltersByKeywordAndLocation(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	oslo := storedPost(1, "coffee")
	oslo.Address = "Oslo, Norway"
	oslo.Geo = &models.Geo{Latitude: 59.91, Longitude: 10.75}
	require.NoError(t, store.CreatePost(ctx, oslo))
	require.NoError(t, store.CreatePost(ctx, storedPost(2, "coffee")))
	require.NoError(t, store.CreatePost(ctx, storedPost(3, "tea")))

	posts, err := store.RecentPosts(ctx, "coffee", "Oslo, Norway", 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(1), posts[0].Id)
}
