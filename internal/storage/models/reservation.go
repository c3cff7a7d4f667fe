// internal/storage/models/reservation.go
package models

import "time"

// Reservation is one wallet's pre-launch investment total. It exists only
// for the reservation flow that runs before the on-chain program takes
// over; amounts are SOL lamports.
type Reservation struct {
	ID               uint   `gorm:"primaryKey"`
	PublicKey        string `gorm:"uniqueIndex;size:64;not null"`
	InvestedLamports int64  `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TokenState is the aggregate row for the token being reserved. BondedTime
// is zero until the investment goal is crossed, then set once and never
// cleared.
type TokenState struct {
	ID               uint   `gorm:"primaryKey"`
	Mint             string `gorm:"uniqueIndex;size:64;not null"`
	InvestedLamports int64  `gorm:"not null;default:0"`
	BondedTime       int64  `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
