package domain

import "time"

// Principal is the authenticated identity using the system. It is owned by
// the session provider; everything else treats it as read-only.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// User is the stored account backing a principal. PushToken is the device
// token registered by the native platform bridge, empty on web sessions.
type User struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	DisplayName  string    `json:"display_name,omitempty" bson:"display_name,omitempty"`
	PushToken    string    `json:"-" bson:"push_token,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// Principal returns the identity view of this user.
func (u *User) Principal() *Principal {
	return &Principal{ID: u.ID, Email: u.Email}
}
