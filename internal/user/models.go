package user

// Profile is the public summary of a user; credential material and graph
// internals never leave the package.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// doc mirrors the stored user document's graph fields. Followers and
// following are always read and written together so the two sides of an
// edge cannot drift apart.
type doc struct {
	Email     string
	Name      string
	Followers []string
	Following []string
}
