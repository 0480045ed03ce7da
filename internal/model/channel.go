package model

import "time"

// Channel is a named group with one admin and a member set fixed at
// creation. The admin is implicitly authorized as a member for reads.
// Its message sequence is append-only; UpdatedAt moves on each append
// and drives the "most recently active first" channel listing.
type Channel struct {
	ID        string    `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	AdminID   string    `json:"admin"     db:"admin_id"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Message is one entry in a channel's sequence. Content is opaque here —
// the server stores and returns it, nothing more.
type Message struct {
	ID        string    `json:"id"        db:"id"`
	ChannelID string    `json:"channelId" db:"channel_id"`
	SenderID  string    `json:"-"         db:"sender_id"`
	Content   string    `json:"content"   db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// EnrichedMessage is a message with its sender resolved into the
// restricted Sender projection.
type EnrichedMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	CreatedAt time.Time `json:"createdAt"`
}
