package entity

// User is the displayable identity resolved through the user directory.
// The chat core never writes users; the surrounding CRUD app owns them.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}
