package post

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func passThrough(c *fiber.Ctx) error { return c.Next() }

func newHandlerApp(t *testing.T) (*fiber.App, pgxmock.PgxPoolIface) {
	t.Helper()
	mock := newMock(t)
	app := fiber.New()
	RegisterRoutes(app.Group("/posts"), NewService(mock, nil), passThrough)
	return app, mock
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) *http.Response {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	return resp
}

func TestHandlerListPosts(t *testing.T) {
	app, mock := newHandlerApp(t)

	mock.ExpectQuery(`ORDER BY created_at DESC`).
		WillReturnRows(pgxmock.NewRows(postColumnsList()).
			AddRow("post-1", "a@x.com", "Alice", "first", "hello", []byte(`[]`), []byte(`[]`), createdAt, createdAt))

	resp := doJSON(t, app, http.MethodGet, "/posts", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var posts []Post
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "post-1" {
		t.Fatalf("unexpected posts: %+v", posts)
	}
}

func TestHandlerCreatePost(t *testing.T) {
	app, mock := newHandlerApp(t)

	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs(pgxmock.AnyArg(), "a@x.com", "Alice", "first", "hello").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(createdAt, createdAt))

	resp := doJSON(t, app, http.MethodPost, "/posts",
		`{"author_email":"a@x.com","author_name":"Alice","title":"first","content":"hello"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var body struct {
		Post Post `json:"post"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Post.Title != "first" || body.Post.ID == "" {
		t.Fatalf("unexpected post: %+v", body.Post)
	}
}

func TestHandlerCreatePostMissingFields(t *testing.T) {
	app, _ := newHandlerApp(t)

	resp := doJSON(t, app, http.MethodPost, "/posts", `{"title":"first"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandlerUpdatePostNotFound(t *testing.T) {
	app, mock := newHandlerApp(t)

	mock.ExpectQuery(`SELECT id, author_email`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	resp := doJSON(t, app, http.MethodPut, "/posts/missing", `{"title":"x"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandlerDeletePost(t *testing.T) {
	app, mock := newHandlerApp(t)

	mock.ExpectExec(`DELETE FROM posts`).
		WithArgs("post-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	resp := doJSON(t, app, http.MethodDelete, "/posts/post-1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "post deleted" {
		t.Fatalf("unexpected message: %q", body.Message)
	}
}

func TestHandlerLikeRequiresEmail(t *testing.T) {
	app, _ := newHandlerApp(t)

	resp := doJSON(t, app, http.MethodPut, "/posts/post-1/like", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandlerLikePost(t *testing.T) {
	app, mock := newHandlerApp(t)

	expectLoad(mock, "post-1", `[]`, `[]`)
	expectSave(mock, "post-1", "first", "hello world", []byte(`["u@x.com"]`), []byte(`[]`))

	resp := doJSON(t, app, http.MethodPut, "/posts/post-1/like", `{"user_email":"u@x.com"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Post Post `json:"post"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Post.Likes) != 1 || body.Post.Likes[0] != "u@x.com" {
		t.Fatalf("unexpected likes: %v", body.Post.Likes)
	}
}

func TestHandlerCommentRequiresContent(t *testing.T) {
	app, _ := newHandlerApp(t)

	resp := doJSON(t, app, http.MethodPost, "/posts/post-1/comment", `{"user_email":"b@x.com"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandlerNonNumericCommentIndex(t *testing.T) {
	app, _ := newHandlerApp(t)

	resp := doJSON(t, app, http.MethodPut, "/posts/post-1/comment/abc", `{"content":"x"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandlerDeleteCommentOutOfBounds(t *testing.T) {
	app, mock := newHandlerApp(t)

	expectLoad(mock, "post-1", `[]`, `[]`)

	resp := doJSON(t, app, http.MethodDelete, "/posts/post-1/comment/5", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandlerAddReply(t *testing.T) {
	app, mock := newHandlerApp(t)

	comments := `[{"author_email":"b@x.com","content":"hi","created_at":"2024-01-02T10:00:00Z","replies":[]}]`
	expectLoad(mock, "post-1", `[]`, comments)
	expectSave(mock, "post-1", "first", "hello world", []byte(`[]`), pgxmock.AnyArg())

	resp := doJSON(t, app, http.MethodPost, "/posts/post-1/comment/0/reply",
		`{"user_email":"c@x.com","content":"me too"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Post Post `json:"post"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Post.Comments[0].Replies) != 1 {
		t.Fatalf("expected one reply")
	}
}

func TestHandlerNonNumericReplyIndex(t *testing.T) {
	app, _ := newHandlerApp(t)

	resp := doJSON(t, app, http.MethodDelete, "/posts/post-1/comment/0/reply/abc", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandlerFollowingFeedUnknownViewer(t *testing.T) {
	app, mock := newHandlerApp(t)

	mock.ExpectQuery(`SELECT following FROM users`).
		WithArgs("ghost@x.com").
		WillReturnError(pgx.ErrNoRows)

	resp := doJSON(t, app, http.MethodGet, "/posts/following/ghost@x.com", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandlerFollowingFeed(t *testing.T) {
	app, mock := newHandlerApp(t)

	mock.ExpectQuery(`SELECT following FROM users`).
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"following"}).AddRow([]byte(`[]`)))

	resp := doJSON(t, app, http.MethodGet, "/posts/following/a@x.com", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Posts []Post `json:"posts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Posts == nil || len(body.Posts) != 0 {
		t.Fatalf("expected empty posts array")
	}
}
