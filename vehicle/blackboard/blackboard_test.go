package blackboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/derweg/eagleeye/vehicle/geom"
	"github.com/derweg/eagleeye/vehicle/planner"
)

func TestStateRoundTrip(t *testing.T) {
	bb := New()
	s := planner.State{Rear: geom.Vec{X: 1}, Front: geom.Vec{X: 3.5}, Velocity: 2}
	bb.SetState(s)
	assert.Equal(t, s, bb.State())
}

func TestObstaclesAreSnapshotted(t *testing.T) {
	bb := New()
	src := []geom.Circle{{Center: geom.Vec{X: 1}, Radius: 0.5}}
	bb.SetObstacles(src)

	// Mutating the caller's slice must not leak into the board.
	src[0].Radius = 99
	got := bb.Obstacles()
	assert.Equal(t, 0.5, got[0].Radius)

	// Nor the other way around.
	got[0].Radius = 7
	assert.Equal(t, 0.5, bb.Obstacles()[0].Radius)
}
