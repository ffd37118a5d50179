package models

import "time"

type RegistrationStatus string

const (
	RegistrationStatusPending  RegistrationStatus = "pending"
	RegistrationStatusApproved RegistrationStatus = "approved"
	RegistrationStatusRejected RegistrationStatus = "rejected"
)

type Registration struct {
	ID             string             `bson:"_id,omitempty" json:"id,omitempty"`
	Name           string             `bson:"name" json:"name" validate:"required,min=2,max=100"`
	MobileNumber   string             `bson:"mobile_number" json:"mobile_number" validate:"required,min=10,max=15"`
	WhatsAppNumber string             `bson:"whatsapp_number" json:"whatsapp_number" validate:"omitempty,min=10,max=15"`
	Address        string             `bson:"address" json:"address" validate:"required,min=5,max=500"`
	PanchayathID   string             `bson:"panchayath_id" json:"panchayath_id" validate:"required"`
	Category       string             `bson:"category" json:"category" validate:"required"`
	Status         RegistrationStatus `bson:"status" json:"status"`
	SubmittedAt    time.Time          `bson:"submitted_at" json:"submitted_at"`
	ApprovedAt     *time.Time         `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	UniqueID       string             `bson:"unique_id,omitempty" json:"unique_id,omitempty"`
	UserID         string             `bson:"user_id,omitempty" json:"user_id,omitempty"`
}

// NewRegistration is the payload for creating a registration. The server
// assigns id, status and submitted_at.
type NewRegistration struct {
	Name           string `bson:"name" json:"name" validate:"required,min=2,max=100"`
	MobileNumber   string `bson:"mobile_number" json:"mobile_number" validate:"required,min=10,max=15"`
	WhatsAppNumber string `bson:"whatsapp_number" json:"whatsapp_number" validate:"omitempty,min=10,max=15"`
	Address        string `bson:"address" json:"address" validate:"required,min=5,max=500"`
	PanchayathID   string `bson:"panchayath_id" json:"panchayath_id" validate:"required"`
	Category       string `bson:"category" json:"category" validate:"required"`
}
