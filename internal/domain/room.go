package domain

type RoomID string

// RoomInfo is a read-only view of one directory entry.
type RoomInfo struct {
	ID      RoomID `json:"id"`
	Members int    `json:"members"`
}
