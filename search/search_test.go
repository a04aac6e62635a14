package search_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postvibe/models"
	"postvibe/search"
)

// knownPosts is a PostChecker over a fixed id set.
type knownPosts map[int64]bool

func (k knownPosts) HasPost(ctx context.Context, id int64) (bool, error) {
	return k[id], nil
}

func item(id int64, text string, lang string) string {
	createdAt := time.Now().UTC().Format(time.RubyDate)
	return fmt.Sprintf(`{
		"id": %d,
		"text": %q,
		"created_at": %q,
		"user": {
			"screen_name": "someone",
			"name": "Someone",
			"profile_image_url": "https://example.com/avatar.png",
			"lang": %q
		}
	}`, id, text, createdAt, lang)
}

func searchServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestKeywordSearch(t *testing.T) {
	var gotQuery string
	server := searchServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprintf(w, `{"statuses": [%s, %s]}`,
			item(1, "coffee is great", "en"),
			item(2, "more coffee please", "en"))
	})

	client := search.NewClient(server.URL, "token", knownPosts{})
	drafts, err := client.KeywordSearch(context.Background(), "coffee", 15, nil)

	require.NoError(t, err)
	assert.Len(t, drafts, 2)
	assert.Equal(t, int64(1), drafts[0].Id)
	assert.Equal(t, "coffee is great", drafts[0].Text)
	assert.Equal(t, "someone", drafts[0].AuthorHandle)
	assert.Nil(t, drafts[0].Geo)
	assert.Contains(t, gotQuery, "q=coffee")
	assert.Contains(t, gotQuery, "count=15")
	assert.NotContains(t, gotQuery, "geocode")
}

func TestKeywordSearchWithLocation(t *testing.T) {
	var gotQuery string
	server := searchServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprintf(w, `{"statuses": [%s]}`, item(1, "coffee here", "en"))
	})

	location := &models.Location{Latitude: 59.91, Longitude: 10.75, Address: "Oslo, Norway"}
	client := search.NewClient(server.URL, "token", knownPosts{})
	drafts, err := client.KeywordSearch(context.Background(), "coffee", 15, location)

	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Contains(t, gotQuery, "geocode=")
	assert.Contains(t, gotQuery, "10mi")
	require.NotNil(t, drafts[0].Geo)
	assert.Equal(t, 59.91, drafts[0].Geo.Latitude)
	assert.Equal(t, "Oslo, Norway", drafts[0].Address)
}

func TestKeywordSearchDropsStoredPosts(t *testing.T) {
	server := searchServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"statuses": [%s, %s, %s]}`,
			item(1, "already seen", "en"),
			item(2, "brand new", "en"),
			item(3, "also seen", "en"))
	})

	client := search.NewClient(server.URL, "token", knownPosts{1: true, 3: true})
	drafts, err := client.KeywordSearch(context.Background(), "coffee", 15, nil)

	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, int64(2), drafts[0].Id)
}

func TestKeywordSearchAllDuplicatesIsNotAnError(t *testing.T) {
	server := searchServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"statuses": [%s]}`, item(1, "already seen", "en"))
	})

	client := search.NewClient(server.URL, "token", knownPosts{1: true})
	drafts, err := client.KeywordSearch(context.Background(), "coffee", 15, nil)

	assert.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestKeywordSearchNoResults(t *testing.T) {
	server := searchServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"statuses": []}`)
	})

	client := search.NewClient(server.URL, "token", knownPosts{})
	_, err := client.KeywordSearch(context.Background(), "coffee", 15, nil)

	assert.ErrorIs(t, err, search.ErrNoResults)
}

func TestKeywordSearchSkipsUnparseableTimestamps(t *testing.T) {
	server := searchServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"statuses": [%s, {
			"id": 99,
			"text": "broken",
			"created_at": "not a timestamp",
			"user": {"screen_name": "x", "name": "X", "profile_image_url": "", "lang": "en"}
		}]}`, item(1, "fine", "en"))
	})

	client := search.NewClient(server.URL, "token", knownPosts{})
	drafts, err := client.KeywordSearch(context.Background(), "coffee", 15, nil)

	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, int64(1), drafts[0].Id)
}

func TestKeywordSearchAPIError(t *testing.T) {
	server := searchServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	client := search.NewClient(server.URL, "token", knownPosts{})
	_, err := client.KeywordSearch(context.Background(), "coffee", 15, nil)

	assert.ErrorIs(t, err, search.ErrNoResults)
}

func TestUserTimeline(t *testing.T) {
	var gotQuery string
	server := searchServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprintf(w, `[%s, %s]`,
			item(1, "my first post", "en"),
			item(2, "my second post", "en"))
	})

	client := search.NewClient(server.URL, "token", knownPosts{})
	drafts, err := client.UserTimeline(context.Background(), "@somebody", 15)

	require.NoError(t, err)
	assert.Len(t, drafts, 2)
	// The handle the caller searched for wins over the payload's screen name.
	assert.Equal(t, "somebody", drafts[0].AuthorHandle)
	assert.Contains(t, gotQuery, "handle=somebody")
}

func TestUserTimelineEmpty(t *testing.T) {
	server := searchServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})

	client := search.NewClient(server.URL, "token", knownPosts{})
	_, err := client.UserTimeline(context.Background(), "@somebody", 15)

	assert.ErrorIs(t, err, search.ErrNoResults)
}

func TestUserTimelineUnsupportedLanguage(t *testing.T) {
	server := searchServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[%s]`, item(1, "dette er en norsk tekst", "no"))
	})

	client := search.NewClient(server.URL, "token", knownPosts{})
	_, err := client.UserTimeline(context.Background(), "@somebody", 15)

	assert.ErrorIs(t, err, search.ErrUnsupportedLanguage)
}

func TestUserTimelineDetectsLanguageWhenUndeclared(t *testing.T) {
	server := searchServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[%s]`,
			item(1, "I really enjoyed the concert last night, the band was fantastic", ""))
	})

	client := search.NewClient(server.URL, "token", knownPosts{})
	drafts, err := client.UserTimeline(context.Background(), "@somebody", 15)

	require.NoError(t, err)
	assert.Len(t, drafts, 1)
}
