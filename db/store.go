package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"

	"postvibe/models"
)

// ErrDatabase marks persistence failures. A batch may be partially committed
// when this surfaces; callers must tolerate partial persistence.
var ErrDatabase = errors.New("database error")

var postColumns = []string{
	"id", "created_at", "author_handle", "author_display_name", "avatar_url",
	"text", "latitude", "longitude", "location_address", "sentiment_label",
	"sentiment_score", "keyword_search_term", "location_search_term", "stored_at",
}

// Store handles all database operations with a shared connection pool.
type Store struct {
	db *sql.DB
}

func NewStore(database string) (*Store, error) {
	db, err := connection(database)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return &Store{db: db}, nil
}

func (store *Store) Close() error {
	return store.db.Close()
}

// HasPost reports whether a post with the given source-assigned id exists.
func (store *Store) HasPost(ctx context.Context, id int64) (bool, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("1").From("posts")
	sb.Where(sb.Equal("id", id))

	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	var one int
	err := store.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return true, nil
}

// CreatePost inserts a single classified post. A duplicate id fails at the
// unique primary key, never silently overwrites.
func (store *Store) CreatePost(ctx context.Context, post models.Post) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	log.WithFields(log.Fields{
		"id":      post.Id,
		"keyword": post.KeywordSearchTerm,
		"label":   post.SentimentLabel,
		"score":   post.SentimentScore,
	}).Info("Creating post")

	var latitude, longitude interface{}
	if post.Geo != nil {
		latitude = post.Geo.Latitude
		longitude = post.Geo.Longitude
	}

	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto("posts").Cols(postColumns...).Values(
		post.Id,
		post.CreatedAt.Unix(),
		post.AuthorHandle,
		post.AuthorDisplayName,
		post.AvatarUrl,
		post.Text,
		latitude,
		longitude,
		post.Address,
		post.SentimentLabel,
		post.SentimentScore,
		post.KeywordSearchTerm,
		post.LocationSearchTerm,
		post.StoredAt.Unix(),
	)
	query, args := ib.BuildWithFlavor(sqlbuilder.SQLite)

	if _, err := store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: insert: %v", ErrDatabase, err)
	}

	return nil
}

// RecentPosts returns the newest stored posts for the keyword (and location
// address, if given), ordered by stored_at then post timestamp descending.
func (store *Store) RecentPosts(ctx context.Context, keyword string, location string, limit int) ([]models.Post, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(postColumns...).From("posts")
	sb.Where(sb.Equal("keyword_search_term", keyword))
	if location != "" {
		sb.Where(sb.Equal("location_address", location))
	}
	sb.OrderBy("stored_at DESC", "created_at DESC")
	sb.Limit(limit)

	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrDatabase, err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrDatabase, err)
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

func scanPost(rows *sql.Rows) (models.Post, error) {
	var post models.Post
	var createdAt, storedAt int64
	var latitude, longitude sql.NullFloat64

	if err := rows.Scan(
		&post.Id,
		&createdAt,
		&post.AuthorHandle,
		&post.AuthorDisplayName,
		&post.AvatarUrl,
		&post.Text,
		&latitude,
		&longitude,
		&post.Address,
		&post.SentimentLabel,
		&post.SentimentScore,
		&post.KeywordSearchTerm,
		&post.LocationSearchTerm,
		&storedAt,
	); err != nil {
		return post, err
	}

	post.CreatedAt = time.Unix(createdAt, 0).UTC()
	post.StoredAt = time.Unix(storedAt, 0).UTC()
	if latitude.Valid && longitude.Valid {
		post.Geo = &models.Geo{Latitude: latitude.Float64, Longitude: longitude.Float64}
	}

	return post, nil
}
