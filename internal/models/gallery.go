package models

import "time"

type GalleryItem struct {
	ID          string    `bson:"_id,omitempty" json:"id,omitempty"`
	Title       string    `bson:"title" json:"title" validate:"required"`
	ImageURL    string    `bson:"image_url" json:"image_url" validate:"required,url"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Category    string    `bson:"category" json:"category"`
	UploadedAt  time.Time `bson:"uploaded_at" json:"uploaded_at"`
}
