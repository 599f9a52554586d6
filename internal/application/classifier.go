package app

import (
	"image"

	"cone-steer/internal/domain/entity"
)

// SideClassifier assigns candidates to the left or right half of the road.
type SideClassifier struct {
	left  image.Rectangle
	right image.Rectangle
	rule  entity.ExclusivityRule
}

// NewSideClassifier creates a classifier over two non-overlapping ROIs.
func NewSideClassifier(left, right image.Rectangle, rule entity.ExclusivityRule) *SideClassifier {
	return &SideClassifier{left: left, right: right, rule: rule}
}

// Classify computes the side assignment of one frame. Candidates are processed
// in order; when several cones land on the same side the last one names the value.
func (c *SideClassifier) Classify(candidates []entity.CandidateRegion) entity.SideAssignment {
	var a entity.SideAssignment
	claimedLeft := make(map[entity.ColorTag]bool, 2)
	claimedRight := make(map[entity.ColorTag]bool, 2)

	for _, cand := range candidates {
		switch {
		case cand.Centroid.In(c.left) && c.mayClaim(cand.Color, claimedLeft, claimedRight):
			a.LeftValue = cand.Color
			claimedLeft[cand.Color] = true
		case cand.Centroid.In(c.right) && c.mayClaim(cand.Color, claimedRight, claimedLeft):
			a.RightValue = cand.Color
			claimedRight[cand.Color] = true
		}
	}

	a.LeftConeSeen = len(claimedLeft) > 0
	a.RightConeSeen = len(claimedRight) > 0
	return a
}

// mayClaim reports whether color may claim the target side.
func (c *SideClassifier) mayClaim(color entity.ColorTag, target, opposite map[entity.ColorTag]bool) bool {
	if c.rule == entity.ExclusiveOtherColor {
		for claimed := range target {
			if claimed != color {
				return false
			}
		}
		return true
	}
	return !opposite[color]
}
