package entity

// Direction steering mode derived from which sides report a cone.
type Direction int

const (
	DirectionHold       Direction = iota // no cone on either side, keep the previous command
	DirectionCentered                    // cones on both sides
	DirectionDriftRight                  // right side only
	DirectionDriftLeft                   // left side only
)

func (d Direction) String() string {
	switch d {
	case DirectionCentered:
		return "centered"
	case DirectionDriftRight:
		return "drift-right"
	case DirectionDriftLeft:
		return "drift-left"
	default:
		return "hold"
	}
}

// ExclusivityRule decides when a color may not claim a side.
type ExclusivityRule int

const (
	// ExclusiveSameColor: a color that already claimed one side cannot claim the other.
	ExclusiveSameColor ExclusivityRule = iota
	// ExclusiveOtherColor: a side already claimed by the other color cannot be claimed again.
	ExclusiveOtherColor
)

// SideAssignment per-frame cone presence. Recomputed for every frame.
type SideAssignment struct {
	LeftValue     ColorTag // color of the last cone accepted on the left
	RightValue    ColorTag // color of the last cone accepted on the right
	LeftConeSeen  bool
	RightConeSeen bool
}

// Direction classifies the assignment into a steering mode.
func (a SideAssignment) Direction() Direction {
	switch {
	case a.LeftConeSeen && a.RightConeSeen:
		return DirectionCentered
	case a.RightConeSeen:
		return DirectionDriftRight
	case a.LeftConeSeen:
		return DirectionDriftLeft
	default:
		return DirectionHold
	}
}
