package model

import "time"

// User is the internal identity behind a Telegram mini-app visitor.
// The numeric ID is ours (bigserial); TelegramID is the chat-platform id
// used to reach the user through the courier.
type User struct {
	ID           int64
	TelegramID   int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
	CreatedAt    time.Time
	LastSeenAt   time.Time
}

// TelegramProfile is the subset of the Telegram WebApp user object we keep.
type TelegramProfile struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LanguageCode string `json:"language_code"`
}
