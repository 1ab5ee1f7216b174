package types

// User is the profile shape returned by the upstream auth surface.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the persisted auth snapshot for one browser session.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
