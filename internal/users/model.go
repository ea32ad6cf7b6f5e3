package users

import (
	"time"

	"portfolio-backend/internal/identity"
)

type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	GivenName  string    `json:"givenName"`
	FamilyName string    `json:"familyName"`
	PictureURL string    `json:"pictureUrl"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Handle is the public handle used in editor routes.
func (u User) Handle() string {
	return identity.DeriveHandle(u.Email)
}
