package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/derweg/eagleeye/vehicle/blackboard"
	"github.com/derweg/eagleeye/vehicle/geom"
	"github.com/derweg/eagleeye/vehicle/planner"
)

var planPose struct {
	x, y      float64
	orientDeg float64
	velocity  float64
	steerDeg  float64
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run one planning cycle from a given pose against the configured obstacles",
	RunE:  runPlan,
}

func init() {
	f := planCmd.Flags()
	f.Float64Var(&planPose.x, "x", 0, "rear axle x, metres")
	f.Float64Var(&planPose.y, "y", 0, "rear axle y, metres")
	f.Float64Var(&planPose.orientDeg, "orient", 0, "orientation, degrees")
	f.Float64Var(&planPose.velocity, "velocity", 1, "velocity, m/s")
	f.Float64Var(&planPose.steerDeg, "steer", 0, "nominal steering angle, degrees")
}

func runPlan(cmd *cobra.Command, args []string) error {
	orientation := geom.Deg(planPose.orientDeg)
	rear := geom.Vec{X: planPose.x, Y: planPose.y}
	heading := geom.Vec{X: 1, Y: 0}.Rotate(orientation)

	board := blackboard.New()
	board.SetState(planner.State{
		Rear:        rear,
		Front:       rear.Add(heading.Scale(cfg.Planner.AxisDistance)),
		Orientation: orientation,
		Velocity:    planPose.velocity,
		Steer:       geom.Deg(planPose.steerDeg),
	})

	p, err := planner.New(cfg.Planner.Core(), board, nil)
	if err != nil {
		return err
	}

	chosen := p.FindPath(cfg.Circles())
	fmt.Fprintf(cmd.OutOrStdout(), "velocity %.3f m/s, steer %.2f°\n", chosen.Velocity, chosen.Steer.Deg180())
	return nil
}
