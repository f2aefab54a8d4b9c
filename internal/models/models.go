package models

import "time"

// Profile represents a user of the time bank: identity, contact details
// and the single skill the user offers. Favorites is one-directional; a
// user never sees who favorited them.
type Profile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	BirthDate string    `json:"birth_date"` // DD/MM/YYYY, free text as entered
	NIF       string    `json:"nif"`
	Skill     string    `json:"skill"`
	PhotoURL  *string   `json:"photo_url,omitempty"`
	Favorites []string  `json:"favorites"`
	PushToken *string   `json:"push_token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Appointment represents a scheduled service offer. Contact fields are
// copied from the creator's profile at creation time, not referenced.
type Appointment struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ServiceType string    `json:"service_type"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	StartsAt    time.Time `json:"starts_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Session is the authenticated identity handed back by sign-in/sign-up.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}
