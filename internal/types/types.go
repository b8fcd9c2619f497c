package types

import "time"

// User is a chat participant known to the bot.
type User struct {
	ID          int64     `json:"id"`
	ExternalID  int64     `json:"external_id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Alert is a standing request to be notified once Symbol trades at or above TargetPrice.
type Alert struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Symbol      string    `json:"symbol"`
	TargetPrice float64   `json:"target_price"`
	CreatedAt   time.Time `json:"created_at"`
}
