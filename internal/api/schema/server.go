package schema

import "time"

// Server represents a registered server. The password is never returned.
type Server struct {
	ID          int64     `json:"id"`
	Label       string    `json:"label"`
	Name        string    `json:"name"`
	Host        string    `json:"host"`
	Port        int       `json:"port"`
	Username    string    `json:"username,omitempty"`
	HasPassword bool      `json:"hasPassword"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ServerInput is the body for creating or updating a server.
type ServerInput struct {
	Label    string `json:"label,omitempty"`
	Host     string `json:"host" minLength:"1"`
	Port     int    `json:"port,omitempty" minimum:"0" maximum:"65535"`
	Username string `json:"username,omitempty"`
	// Password is kept on update when empty, unless ClearPassword is set.
	Password      string `json:"password,omitempty"`
	ClearPassword bool   `json:"clearPassword,omitempty"`
}
