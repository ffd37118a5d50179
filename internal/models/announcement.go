package models

import "time"

type Announcement struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	Title     string    `bson:"title" json:"title" validate:"required,min=3,max=200"`
	Content   string    `bson:"content" json:"content" validate:"required"`
	Link      string    `bson:"link,omitempty" json:"link,omitempty"`
	Category  string    `bson:"category,omitempty" json:"category,omitempty"`
	IsActive  bool      `bson:"is_active" json:"is_active"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
