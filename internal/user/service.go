package user

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/prateekbalawat/devconnect-backend/internal/db"
	"github.com/prateekbalawat/devconnect-backend/internal/shared/strset"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrSelfFollow = errors.New("cannot follow yourself")
)

type Service struct {
	db db.Querier
}

func NewService(database db.Querier) *Service {
	return &Service{db: database}
}

// graphQuerier is satisfied by both db.Querier and pgx.Tx, so the
// load/save helpers work inside and outside a transaction.
type graphQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Service) Get(ctx context.Context, email string) (Profile, error) {
	row := s.db.QueryRow(ctx, `SELECT name, email FROM users WHERE email=$1`, email)
	var p Profile
	if err := row.Scan(&p.Name, &p.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

// Follow adds followerEmail to the target's followers and targetEmail to
// the follower's following. Both documents are persisted in one
// transaction; a repeated follow is a no-op that still succeeds.
func (s *Service) Follow(ctx context.Context, followerEmail, targetEmail string) error {
	if followerEmail == targetEmail {
		return ErrSelfFollow
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	target, err := loadGraph(ctx, tx, targetEmail)
	if err != nil {
		return err
	}
	follower, err := loadGraph(ctx, tx, followerEmail)
	if err != nil {
		return err
	}

	if !strset.Has(target.Followers, followerEmail) {
		target.Followers = append(target.Followers, followerEmail)
		follower.Following = strset.Add(follower.Following, targetEmail)
		if err := saveGraph(ctx, tx, target); err != nil {
			return err
		}
		if err := saveGraph(ctx, tx, follower); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Unfollow removes both sides of the edge whether or not it exists.
func (s *Service) Unfollow(ctx context.Context, followerEmail, targetEmail string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	target, err := loadGraph(ctx, tx, targetEmail)
	if err != nil {
		return err
	}
	follower, err := loadGraph(ctx, tx, followerEmail)
	if err != nil {
		return err
	}

	target.Followers = strset.Remove(target.Followers, followerEmail)
	follower.Following = strset.Remove(follower.Following, targetEmail)
	if err := saveGraph(ctx, tx, target); err != nil {
		return err
	}
	if err := saveGraph(ctx, tx, follower); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Service) Followers(ctx context.Context, email string) ([]string, error) {
	u, err := loadGraph(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	return u.Followers, nil
}

func (s *Service) Following(ctx context.Context, email string) ([]string, error) {
	u, err := loadGraph(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	return u.Following, nil
}

func loadGraph(ctx context.Context, q graphQuerier, email string) (doc, error) {
	row := q.QueryRow(ctx, `SELECT email, name, followers, following FROM users WHERE email=$1`, email)

	var u doc
	var followers, following []byte
	if err := row.Scan(&u.Email, &u.Name, &followers, &following); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return doc{}, ErrNotFound
		}
		return doc{}, err
	}
	if err := json.Unmarshal(followers, &u.Followers); err != nil {
		return doc{}, err
	}
	if err := json.Unmarshal(following, &u.Following); err != nil {
		return doc{}, err
	}
	if u.Followers == nil {
		u.Followers = []string{}
	}
	if u.Following == nil {
		u.Following = []string{}
	}
	return u, nil
}

func saveGraph(ctx context.Context, q graphQuerier, u doc) error {
	followers, _ := json.Marshal(u.Followers)
	following, _ := json.Marshal(u.Following)
	_, err := q.Exec(ctx, `
		UPDATE users
		SET followers=$2, following=$3
		WHERE email=$1
	`, u.Email, followers, following)
	return err
}
