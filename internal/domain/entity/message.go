package entity

import "time"

// Message is an immutable chat record. ID and CreatedAt are assigned by
// the store on append; messages in a room are totally ordered by
// (CreatedAt, ID).
type Message struct {
	ID        int64     `json:"id"`
	RoomID    string    `json:"roomId"`
	ProductID string    `json:"productId"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	CreatedAt time.Time `json:"createdAt"`
}
