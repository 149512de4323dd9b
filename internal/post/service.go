package post

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prateekbalawat/devconnect-backend/internal/db"
	"github.com/prateekbalawat/devconnect-backend/internal/shared/strset"
	"github.com/prateekbalawat/devconnect-backend/internal/stream"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound        = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrReplyNotFound   = errors.New("reply not found")
	ErrUserNotFound    = errors.New("user not found")
)

const postColumns = `id, author_email, author_name, title, content, likes, comments, created_at, updated_at`

type Service struct {
	db  db.Querier
	hub *stream.Hub
}

func NewService(database db.Querier, hub *stream.Hub) *Service {
	return &Service{db: database, hub: hub}
}

func (s *Service) Create(ctx context.Context, input Post) (Post, error) {
	input.ID = uuid.NewString()
	input.Likes = []string{}
	input.Comments = []Comment{}

	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (id, author_email, author_name, title, content, likes, comments)
		VALUES ($1,$2,$3,$4,$5,'[]'::jsonb,'[]'::jsonb)
		RETURNING created_at, updated_at
	`, input.ID, input.AuthorEmail, input.AuthorName, input.Title, input.Content)
	if err := row.Scan(&input.CreatedAt, &input.UpdatedAt); err != nil {
		return Post{}, err
	}

	if s.hub != nil {
		payload, _ := json.Marshal(input)
		s.hub.Broadcast("global", payload)
	}
	return input, nil
}

func (s *Service) Update(ctx context.Context, id, title, content string) (Post, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if title != "" {
		p.Title = title
	}
	if content != "" {
		p.Content = content
	}
	if err := s.save(ctx, &p); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleLike removes the email from the likes set when present and adds
// it otherwise. There is no "already liked" error.
func (s *Service) ToggleLike(ctx context.Context, id, userEmail string) (Post, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if strset.Has(p.Likes, userEmail) {
		p.Likes = strset.Remove(p.Likes, userEmail)
	} else {
		p.Likes = append(p.Likes, userEmail)
	}
	if err := s.save(ctx, &p); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *Service) AddComment(ctx context.Context, id, authorEmail, content string) (Post, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return Post{}, err
	}
	p.Comments = append(p.Comments, Comment{
		AuthorEmail: authorEmail,
		Content:     content,
		CreatedAt:   time.Now(),
		Replies:     []Reply{},
	})
	if err := s.save(ctx, &p); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *Service) UpdateComment(ctx context.Context, id string, commentIndex int, content string) (Post, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if commentIndex < 0 || commentIndex >= len(p.Comments) {
		return Post{}, ErrCommentNotFound
	}
	p.Comments[commentIndex].Content = content
	if err := s.save(ctx, &p); err != nil {
		return Post{}, err
	}
	return p, nil
}

// DeleteComment removes the comment at the given position; later comments
// shift down by one and the deleted comment's replies go with it.
func (s *Service) DeleteComment(ctx context.Context, id string, commentIndex int) (Post, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if commentIndex < 0 || commentIndex >= len(p.Comments) {
		return Post{}, ErrCommentNotFound
	}
	p.Comments = append(p.Comments[:commentIndex], p.Comments[commentIndex+1:]...)
	if err := s.save(ctx, &p); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *Service) AddReply(ctx context.Context, id string, commentIndex int, authorEmail, content string) (Post, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if commentIndex < 0 || commentIndex >= len(p.Comments) {
		return Post{}, ErrCommentNotFound
	}
	p.Comments[commentIndex].Replies = append(p.Comments[commentIndex].Replies, Reply{
		AuthorEmail: authorEmail,
		Content:     content,
		CreatedAt:   time.Now(),
	})
	if err := s.save(ctx, &p); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *Service) UpdateReply(ctx context.Context, id string, commentIndex, replyIndex int, content string) (Post, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if commentIndex < 0 || commentIndex >= len(p.Comments) {
		return Post{}, ErrCommentNotFound
	}
	if replyIndex < 0 || replyIndex >= len(p.Comments[commentIndex].Replies) {
		return Post{}, ErrReplyNotFound
	}
	p.Comments[commentIndex].Replies[replyIndex].Content = content
	if err := s.save(ctx, &p); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *Service) DeleteReply(ctx context.Context, id string, commentIndex, replyIndex int) (Post, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if commentIndex < 0 || commentIndex >= len(p.Comments) {
		return Post{}, ErrCommentNotFound
	}
	replies := p.Comments[commentIndex].Replies
	if replyIndex < 0 || replyIndex >= len(replies) {
		return Post{}, ErrReplyNotFound
	}
	p.Comments[commentIndex].Replies = append(replies[:replyIndex], replies[replyIndex+1:]...)
	if err := s.save(ctx, &p); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]Post, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

func (s *Service) ByAuthor(ctx context.Context, email string) ([]Post, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE author_email=$1
		ORDER BY created_at DESC
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

// FollowingFeed resolves the viewer's following set and returns the posts
// authored by those users, newest first. An empty following set yields an
// empty feed.
func (s *Service) FollowingFeed(ctx context.Context, viewerEmail string) ([]Post, error) {
	var followingDoc []byte
	err := s.db.QueryRow(ctx, `SELECT following FROM users WHERE email=$1`, viewerEmail).Scan(&followingDoc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	var following []string
	if err := json.Unmarshal(followingDoc, &following); err != nil {
		return nil, err
	}
	if len(following) == 0 {
		return []Post{}, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE author_email = ANY($1)
		ORDER BY created_at DESC
	`, following)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

// load fetches the whole post document; every mutation goes through here
// and back out through save, so the stored row is always rewritten as one
// unit.
func (s *Service) load(ctx context.Context, id string) (Post, error) {
	row := s.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1`, id)
	p, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	return p, err
}

func (s *Service) save(ctx context.Context, p *Post) error {
	likes, _ := json.Marshal(p.Likes)
	comments, _ := json.Marshal(p.Comments)
	row := s.db.QueryRow(ctx, `
		UPDATE posts
		SET title=$2, content=$3, likes=$4, comments=$5, updated_at=now()
		WHERE id=$1
		RETURNING updated_at
	`, p.ID, p.Title, p.Content, likes, comments)
	if err := row.Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	var likes, comments []byte
	if err := row.Scan(&p.ID, &p.AuthorEmail, &p.AuthorName, &p.Title, &p.Content, &likes, &comments, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Post{}, err
	}
	if err := json.Unmarshal(likes, &p.Likes); err != nil {
		return Post{}, err
	}
	if err := json.Unmarshal(comments, &p.Comments); err != nil {
		return Post{}, err
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	return p, nil
}

func collectPosts(rows pgx.Rows) ([]Post, error) {
	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
