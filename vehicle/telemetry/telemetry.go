// Package telemetry carries debug annotations out of the control loop:
// in-process fanout to a websocket broadcast server for live viewers, and a
// binary drive log for offline playback. Emission never blocks the control
// loop; annotations are dropped on backpressure.
package telemetry

import (
	"sync/atomic"

	"github.com/derweg/eagleeye/vehicle/geom"
)

// Annotation is one debug drawing primitive.
type Annotation struct {
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	R    float64 `json:"r,omitempty"`
}

// Emitter buffers annotations for the broadcast server. Safe for concurrent
// use.
type Emitter struct {
	ch      chan Annotation
	dropped atomic.Uint64
}

// NewEmitter creates an emitter buffering up to size annotations.
func NewEmitter(size int) *Emitter {
	return &Emitter{ch: make(chan Annotation, size)}
}

// Emit enqueues an annotation, dropping it when the buffer is full.
func (e *Emitter) Emit(a Annotation) {
	select {
	case e.ch <- a:
	default:
		e.dropped.Add(1)
	}
}

// EmitMarker publishes a pose marker. Implements planner.Emitter.
func (e *Emitter) EmitMarker(p geom.Vec) {
	e.Emit(Annotation{Kind: "marker", X: p.X, Y: p.Y})
}

// EmitObstacle publishes an obstacle outline.
func (e *Emitter) EmitObstacle(c geom.Circle) {
	e.Emit(Annotation{Kind: "obstacle", X: c.Center.X, Y: c.Center.Y, R: c.Radius})
}

// Annotations returns the receive side of the buffer.
func (e *Emitter) Annotations() <-chan Annotation { return e.ch }

// Dropped returns how many annotations were discarded on backpressure.
func (e *Emitter) Dropped() uint64 { return e.dropped.Load() }
