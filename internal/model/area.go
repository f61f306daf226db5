package model

// BoundingBox is an axis-aligned rectangle described by its center and size
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type rect struct {
	x1, y1, x2, y2 float64
}

func (b BoundingBox) rect() rect {
	return rect{
		x1: b.X - b.Width/2,
		x2: b.X + b.Width/2,
		y1: b.Y - b.Height/2,
		y2: b.Y + b.Height/2,
	}
}

// Overlaps reports whether the two boxes share interior points.
// Boxes that only touch along an edge do not overlap.
func (b BoundingBox) Overlaps(other BoundingBox) bool {
	r1 := b.rect()
	r2 := other.rect()
	noOverlap := r1.x1 >= r2.x2 || r2.x1 >= r1.x2 || r1.y1 >= r2.y2 || r2.y1 >= r1.y2
	return !noOverlap
}

// Contains reports whether (x, y) lies strictly inside the box
func (b BoundingBox) Contains(x, y float64) bool {
	r := b.rect()
	return x > r.x1 && x < r.x2 && y > r.y1 && y < r.y2
}

// ConversationArea is a labeled zone players gather in
type ConversationArea struct {
	Label       string
	Topic       string
	BoundingBox BoundingBox

	// OccupantsByID is in arrival order with no duplicates
	OccupantsByID []PlayerID
}

// HasOccupant returns true if id is in the area
func (a *ConversationArea) HasOccupant(id PlayerID) bool {
	for _, occupant := range a.OccupantsByID {
		if occupant == id {
			return true
		}
	}
	return false
}

// AddOccupant appends id unless it is already present
func (a *ConversationArea) AddOccupant(id PlayerID) bool {
	if a.HasOccupant(id) {
		return false
	}
	a.OccupantsByID = append(a.OccupantsByID, id)
	return true
}

// RemoveOccupant drops id, returning false if it was not present
func (a *ConversationArea) RemoveOccupant(id PlayerID) bool {
	for i, occupant := range a.OccupantsByID {
		if occupant == id {
			a.OccupantsByID = append(a.OccupantsByID[:i], a.OccupantsByID[i+1:]...)
			return true
		}
	}
	return false
}

// IsEmpty returns true if nobody occupies the area
func (a *ConversationArea) IsEmpty() bool {
	return len(a.OccupantsByID) == 0
}

// Snapshot returns a copy that shares no mutable state with a
func (a *ConversationArea) Snapshot() ConversationArea {
	cp := *a
	cp.OccupantsByID = append([]PlayerID{}, a.OccupantsByID...)
	return cp
}
