package domain

// ActivityPayload carries the event details matchers and the evaluator look at.
// Zero values mean "not provided".
type ActivityPayload struct {
	ShopID      string  `json:"shop_id,omitempty"`
	FlavorID    string  `json:"flavor_id,omitempty"`
	Category    string  `json:"category,omitempty"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
	HasLocation bool    `json:"has_location,omitempty"`
	CustomKey   string  `json:"custom_key,omitempty"`

	// Increment is a batch size, e.g. three reviews logged at once. Values
	// below 1 count as 1.
	Increment int `json:"increment,omitempty"`

	// Points is the amount earned for earn_points objectives.
	Points int `json:"points,omitempty"`
}
