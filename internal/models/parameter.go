package models

import "time"

// SecureParameter holds one encrypted device connection parameter.
// Values are AES-256-GCM ciphertexts; decryption happens on fetch.
type SecureParameter struct {
	Name           string    `gorm:"primaryKey" json:"name"`
	EncryptedValue string    `gorm:"type:text;not null" json:"-"`
	UpdatedAt      time.Time `json:"updated_at"`
}
