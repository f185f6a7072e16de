package models

import (
	"encoding/json"
	"time"
)

// Identity is the identity service's view of a registered account.
type Identity struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
	Status    string
}

type SignUpParams struct {
	FirstName   string
	LastName    string
	Address1    string
	City        string
	State       string
	PostalCode  string
	DateOfBirth string
	SSN         string
	Email       string
	Password    string
}

type UserSession struct {
	UserID          string    // Identity ID
	Email           string    // User email
	FirstName       string    // Display name
	IsAuthenticated bool      // Authentication status
	PendingLink     bool      // Registered, waiting for the account-linking step
	AuthTimestamp   time.Time // When user authenticated or registered
	SessionID       string    // Unique session identifier
}

func NewUserSession(id *Identity, sessionID string, pendingLink bool) UserSession {
	return UserSession{
		UserID:          id.ID,
		Email:           id.Email,
		FirstName:       id.FirstName,
		IsAuthenticated: !pendingLink,
		PendingLink:     pendingLink,
		AuthTimestamp:   time.Now().UTC(),
		SessionID:       sessionID,
	}
}

func (u *UserSession) Serialize() (string, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DeserializeUserSession converts JSON string back into a UserSession struct
func DeserializeUserSession(data string) (*UserSession, error) {
	var us UserSession
	if err := json.Unmarshal([]byte(data), &us); err != nil {
		return nil, err
	}
	return &us, nil
}
