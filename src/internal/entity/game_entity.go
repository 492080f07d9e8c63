package entity

import "time"

// Game is the minimal catalog row the settlement engine needs: the minimum
// player count before auto-settlement may run. Game CRUD lives elsewhere.
type Game struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	MinPlayers int       `gorm:"not null;default:1" json:"minPlayers"`
	CreatedAt  time.Time `json:"createdAt"`
}
