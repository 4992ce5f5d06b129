package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/derweg/eagleeye/vehicle/actuator"
	"github.com/derweg/eagleeye/vehicle/beacon"
	"github.com/derweg/eagleeye/vehicle/blackboard"
	"github.com/derweg/eagleeye/vehicle/drive"
	"github.com/derweg/eagleeye/vehicle/telemetry"
)

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Run the control loop against the live hardware",
	RunE:  runDrive,
}

func runDrive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := slog.With("component", "main")

	if cfg.Beacon.Port == "" {
		return errors.New("drive: beacon port not configured")
	}
	device, err := beacon.Open(cfg.Beacon.Port, cfg.Beacon.Baud)
	if err != nil {
		return fmt.Errorf("drive: open beacon: %w", err)
	}
	defer device.Close()
	if err := device.StartCalc(); err != nil {
		return fmt.Errorf("drive: start beacon: %w", err)
	}

	var act actuator.Actuator = actuator.Noop{}
	if cfg.Actuator.Port != "" {
		serial, err := actuator.OpenSerial(cfg.Actuator.Port, cfg.Actuator.Baud)
		if err != nil {
			return fmt.Errorf("drive: open actuator: %w", err)
		}
		defer serial.Close()
		act = serial
	} else {
		log.Info("actuator port not configured, running dry")
	}

	var emitter *telemetry.Emitter
	if cfg.Telemetry.Addr != "" {
		emitter = telemetry.NewEmitter(cfg.Telemetry.BufferSize)
		server := telemetry.NewServer(emitter)
		go func() {
			if err := server.ListenAndServe(ctx, cfg.Telemetry.Addr); err != nil {
				log.Error("telemetry server failed", "err", err)
			}
		}()
	}

	var dlog *telemetry.DriveLog
	if cfg.Telemetry.DriveLog != "" {
		dlog, err = telemetry.NewRecorder(cfg.Telemetry.DriveLog)
		if err != nil {
			return fmt.Errorf("drive: open drive log: %w", err)
		}
		defer dlog.Close()
	}

	loop, err := drive.New(cfg, blackboard.New(), device, act, emitter, dlog)
	if err != nil {
		return err
	}
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
