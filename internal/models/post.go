package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a captioned image stored in MongoDB. The user reference is a
// back-reference only; posts are created once and never mutated.
type Post struct {
	ID        primitive.ObjectID `json:"id"         bson:"_id,omitempty"`
	UserID    string             `json:"user_id"    bson:"user_id"`
	Caption   string             `json:"caption"    bson:"caption"`
	ImageURL  string             `json:"image"      bson:"image"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
