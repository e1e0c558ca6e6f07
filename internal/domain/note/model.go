package note

import (
	"time"

	"github.com/google/uuid"
)

// Record is a medical note as stored. EncryptedContent is the vault's
// base64 ciphertext and never leaves the service layer.
type Record struct {
	ID                    uuid.UUID
	UserID                string
	Title                 string
	EncryptedContent      string
	IsEmergencyUnlockable bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Note is the decrypted view returned to the owner.
type Note struct {
	ID                    uuid.UUID `json:"id"`
	UserID                string    `json:"user_id"`
	Title                 string    `json:"title"`
	Content               string    `json:"content"`
	IsEmergencyUnlockable bool      `json:"is_emergency_unlockable"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Input is what a client may write.
type Input struct {
	Title                 string `json:"title"`
	Content               string `json:"content"`
	IsEmergencyUnlockable bool   `json:"is_emergency_unlockable"`
}

// Ciphertext identifies one stored ciphertext during a rekey.
type Ciphertext struct {
	ID               uuid.UUID
	EncryptedContent string
}
