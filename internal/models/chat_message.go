package models

import "time"

// ChatMessage records one question/answer exchange. Rows are never updated.
type ChatMessage struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"userId,omitempty" json:"userId,omitempty"`
	Message   string    `bson:"message" json:"message"`
	Response  string    `bson:"response" json:"response"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
