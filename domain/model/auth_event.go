package model

import "time"

// AuthEvent is an append-only record of an authStatus transition.
type AuthEvent struct {
	ChannelID string     `json:"channel_id" bson:"channelId"`
	UserID    string     `json:"user_id" bson:"userId"`
	From      AuthStatus `json:"from" bson:"from"`
	To        AuthStatus `json:"to" bson:"to"`
	Reason    string     `json:"reason,omitempty" bson:"reason,omitempty"`
	CreatedAt time.Time  `json:"created_at" bson:"createdAt"`
}
