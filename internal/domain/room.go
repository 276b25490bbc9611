package domain

import (
	"fmt"
	"unicode/utf8"
)

const MaxRoomNameLen = 100

type (
	RoomName string
	RoomID   string
)

// NewRoomName derives the auxiliary voice room name from a session title.
func NewRoomName(title string) RoomName {
	name := fmt.Sprintf("🔑_%s_VC", title)
	for utf8.RuneCountInString(name) > MaxRoomNameLen {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	return RoomName(name)
}

// Mention renders the platform channel mention markup for the room.
func (r RoomID) Mention() string {
	return fmt.Sprintf("<#%s>", string(r))
}
