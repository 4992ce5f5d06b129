package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/derweg/eagleeye/vehicle/beacon"
)

var beaconCmd = &cobra.Command{
	Use:   "beacon",
	Short: "Stream raw position fixes from the StarGazer sensor",
	RunE:  runBeacon,
}

func runBeacon(cmd *cobra.Command, args []string) error {
	if cfg.Beacon.Port == "" {
		return errors.New("beacon: port not configured")
	}
	device, err := beacon.Open(cfg.Beacon.Port, cfg.Beacon.Baud)
	if err != nil {
		return err
	}
	defer device.Close()
	if err := device.StartCalc(); err != nil {
		return err
	}

	for cmd.Context().Err() == nil {
		fix, err := device.ReadFix()
		if errors.Is(err, beacon.ErrDeadZone) {
			fmt.Fprintln(cmd.OutOrStdout(), "dead zone")
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "marker %d x %.3f y %.3f z %.3f theta %.2f°\n",
			fix.Marker, fix.Position.X, fix.Position.Y, fix.Height, fix.Theta.Deg180())
	}
	return nil
}
