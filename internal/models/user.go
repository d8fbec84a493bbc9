package models

// User is a registered participant. Users are never mutated after registration.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
