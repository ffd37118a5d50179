package models

// Panchayath is a local self-government region. Read-only in this layer,
// maintained by the platform administrators.
type Panchayath struct {
	ID            string `bson:"_id,omitempty" json:"id,omitempty"`
	MalayalamName string `bson:"malayalam_name" json:"malayalam_name"`
	EnglishName   string `bson:"english_name" json:"english_name"`
	PostalCode    string `bson:"postal_code,omitempty" json:"postal_code,omitempty"`
	District      string `bson:"district" json:"district"`
}
