package domain

import "time"

// User represents a registered user of the application.
type User struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	CreatedAt   time.Time   `json:"createdAt"`
	Preferences Preferences `json:"preferences"`
}

// Preferences are stored with the user but not interpreted by the core.
type Preferences struct {
	Currency string `json:"currency"`
	Theme    string `json:"theme"`
	Language string `json:"language"`
}

// DefaultPreferences returns the preferences assigned at registration.
func DefaultPreferences() Preferences {
	return Preferences{Currency: "USD", Theme: "light", Language: "en"}
}
