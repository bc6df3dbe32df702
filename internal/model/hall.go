package model

// Hall is a screening room inside a cinema. Size is the seat capacity.
type Hall struct {
	ID       uint64 // halls.id
	CinemaID uint64 // halls.cinema_id
	Name     string // halls.name, e.g. "A1"
	Size     uint32 // halls.size
}
