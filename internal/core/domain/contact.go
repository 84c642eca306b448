package domain

// Contact is a callable person in the directory the tablet UI shows.
type Contact struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoUrl,omitempty"`
}
