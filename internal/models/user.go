package models

type User struct {
	ID    int64  `json:"id" yaml:"id" db:"id"`
	Name  string `json:"name" yaml:"name" db:"name"`
	Email string `json:"email" yaml:"email" db:"email"`
}

// UserPatch carries the fields of a partial user update. Nil fields are kept.
type UserPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}
