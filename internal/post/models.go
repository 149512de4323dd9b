package post

import "time"

// Post is the whole stored document: likes and the comment/reply tree are
// embedded and always loaded and persisted together with the post row.
type Post struct {
	ID          string    `json:"id"`
	AuthorEmail string    `json:"author_email"`
	AuthorName  string    `json:"author_name"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Likes       []string  `json:"likes"`
	Comments    []Comment `json:"comments"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Comment lives inside its post and is addressed by position. Deleting a
// comment shifts the indices of every later comment.
type Comment struct {
	AuthorEmail string    `json:"author_email"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	Replies     []Reply   `json:"replies"`
}

type Reply struct {
	AuthorEmail string    `json:"author_email"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}
