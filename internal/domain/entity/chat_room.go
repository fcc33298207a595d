package entity

import "time"

// ChatRoom is one negotiation context: a single product and a single
// buyer-seller pair. SellerID is captured from the product at creation
// time and never changes, even if the listing later changes hands.
type ChatRoom struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	BuyerID   string    `json:"buyerId"`
	SellerID  string    `json:"sellerId"`
	CreatedAt time.Time `json:"createdAt"`

	// LastActivity is the timestamp of the newest message in the room,
	// or CreatedAt when the room has no messages yet.
	LastActivity time.Time `json:"lastActivity,omitempty"`
}
