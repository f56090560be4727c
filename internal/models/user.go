package models

import "time"

type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	Password     string    `bson:"password" json:"-"` // bcrypt hash, never serialized
	Name         string    `bson:"name" json:"name"`
	IsSubscribed bool      `bson:"isSubscribed" json:"isSubscribed"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// PublicUser is the only shape of a user returned to clients.
type PublicUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	IsSubscribed bool   `json:"isSubscribed"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		IsSubscribed: u.IsSubscribed,
	}
}
