package models

// Suggestion is a public menu suggestion submitted through the site form.
type Suggestion struct {
	ID             string `bson:"_id" json:"id"`
	RestaurantName string `bson:"restaurantName" json:"restaurantName"`
	City           string `bson:"city,omitempty" json:"city,omitempty"`
	State          string `bson:"state,omitempty" json:"state,omitempty"`
	Website        string `bson:"website,omitempty" json:"website,omitempty"`
	SubmitterEmail string `bson:"submitterEmail,omitempty" json:"submitterEmail,omitempty"`
	Message        string `bson:"message,omitempty" json:"message,omitempty"`
	SubmittedAt    int64  `bson:"submittedAt" json:"submittedAt"`
}
