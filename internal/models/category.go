package models

type Category struct {
	ID        string  `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string  `bson:"name" json:"name" validate:"required"`
	Label     string  `bson:"label" json:"label" validate:"required"`
	ActualFee float64 `bson:"actual_fee" json:"actual_fee" validate:"gte=0"`
	OfferFee  float64 `bson:"offer_fee" json:"offer_fee" validate:"gte=0"`
	HasOffer  bool    `bson:"has_offer" json:"has_offer"`
	ImageURL  string  `bson:"image_url,omitempty" json:"image_url,omitempty"`
}
