package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"helm.klederson.com/internal/app"
	"helm.klederson.com/internal/audio"
	"helm.klederson.com/internal/config"
	"helm.klederson.com/internal/feedback"
	"helm.klederson.com/internal/logging"
	"helm.klederson.com/internal/sensor"
	"helm.klederson.com/internal/telemetry"
)

var (
	flagDemo     bool
	flagConfig   string
	flagHeadless bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "helm",
		Short: "HELM - audio steering aid for the terminal",
		Long: `HELM smooths a compass heading and turns the difference to a target
course into audio cues: a steady drum while on course, low clicks to steer
to port and high clicks to steer to starboard, faster the further off you are.

Headings come from an NMEA 0183 compass on a serial port, a BLE compass, or
the built-in demo source. Use --demo to try it without hardware.`,
		RunE: run,
	}

	f := rootCmd.Flags()
	f.BoolVar(&flagDemo, "demo", false, "Use the simulated heading source (no hardware required)")
	f.StringVar(&flagConfig, "config", "", "Config file (default ./helm.yaml or $HOME/.config/helm/helm.yaml)")
	f.BoolVar(&flagHeadless, "headless", false, "Run without the terminal UI, feedback on")
	f.String("source", config.SourceDemo, "Heading source: demo, nmea or ble")
	f.String("nmea-port", "", "Serial port of the NMEA compass")
	f.Int("nmea-baud", 0, "Baud rate of the NMEA compass")
	f.String("ble-name", "", "Advertised name of the BLE compass")
	f.String("log-file", "", "Log file path")
	f.String("serve", "", "Serve the telemetry websocket on this address, e.g. :8765")
	f.Bool("advertise", false, "Advertise the telemetry endpoint over mDNS")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// flagKeys maps flags onto config keys. Only flags the user set override
// the file and environment.
var flagKeys = map[string]string{
	"source":    "source.kind",
	"nmea-port": "source.nmea_port",
	"nmea-baud": "source.nmea_baud",
	"ble-name":  "source.ble_name",
	"log-file":  "log.file",
	"serve":     "telemetry.addr",
	"advertise": "telemetry.advertise",
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	if flagDemo {
		v.Set("source.kind", config.SourceDemo)
	}
	return nil
}

// lateSender forwards to the program once it exists. Alarms, speech and
// config callbacks are wired before the program is built.
type lateSender struct {
	p atomic.Pointer[tea.Program]
}

func (l *lateSender) Send(msg tea.Msg) {
	if p := l.p.Load(); p != nil {
		p.Send(msg)
	}
}

func run(cmd *cobra.Command, args []string) (err error) {
	v := config.NewViper()
	if err := bindFlags(cmd, v); err != nil {
		return err
	}
	settings, err := config.Load(v, flagConfig)
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.New(settings.Log.File, settings.Log.Level)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
		err = multierr.Append(err, logCloser.Close())
	}()
	logger.Info("starting", zap.String("version", config.AppVersion), zap.String("source", settings.Source.Kind))

	clk := clock.New()
	sender := &lateSender{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := app.Options{
		Clock:      clk,
		Logger:     logger,
		Settings:   settings,
		Output:     audio.Noop{},
		FeedbackOn: flagHeadless,
		Alarms: feedback.ClockAlarms{
			Clock:   clk,
			Deliver: func(epoch uint64) { sender.Send(feedback.FireMsg{Epoch: epoch}) },
		},
	}

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	if settings.Audio.Enabled {
		sys, aerr := audio.NewSystem(logger.Named("audio"), settings.Audio.Voice, func(r audio.SpeechReady) {
			sender.Send(app.SpeechReadyMsg(r))
		})
		if aerr != nil {
			logger.Warn("audio unavailable, running silent", zap.Error(aerr))
		} else {
			opts.Output = sys
			opts.Speech = sys
			closers = append(closers, sys.Close)
		}
	}

	if settings.Telemetry.Addr != "" {
		hub := telemetry.NewHub(clk, logger.Named("telemetry"))
		go hub.Run(ctx)
		srv := telemetry.NewServer(hub, logger.Named("telemetry"))
		if err := srv.Start(settings.Telemetry.Addr); err != nil {
			return err
		}
		closers = append(closers, func() error {
			sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer scancel()
			return srv.Shutdown(sctx)
		})
		opts.Publisher = hub

		if settings.Telemetry.Advertise {
			adv, aerr := telemetry.Advertise(srv.Port(), logger.Named("telemetry"))
			if aerr != nil {
				logger.Warn("mdns advertisement failed", zap.Error(aerr))
			} else {
				closers = append(closers, adv.Close)
			}
		}
	}

	model := app.New(opts)

	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if flagHeadless {
		progOpts = []tea.ProgramOption{tea.WithoutRenderer(), tea.WithInput(nil)}
	}
	p := tea.NewProgram(model, progOpts...)
	sender.p.Store(p)

	src, err := newSource(settings, clk, logger.Named("sensor"))
	if err != nil {
		return err
	}
	if err := model.StartSource(src, p); err != nil {
		if settings.Source.Kind == config.SourceBLE {
			fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
			fmt.Fprintln(os.Stderr, "Bluetooth access requires elevated permissions.")
			fmt.Fprintln(os.Stderr, "Try one of:")
			fmt.Fprintln(os.Stderr, "  sudo ./helm --source ble")
			fmt.Fprintln(os.Stderr, "  sudo setcap cap_net_admin+ep ./helm")
			fmt.Fprintln(os.Stderr, "  ./helm --demo    (demo mode, no hardware needed)")
		}
		return err
	}
	defer model.StopSources()

	if config.Watch(v, func(s config.Settings, werr error) {
		if werr != nil {
			logger.Warn("ignoring invalid config change", zap.Error(werr))
			return
		}
		sender.Send(app.SettingsChangedMsg{Settings: s})
	}) {
		logger.Info("watching config", zap.String("file", v.ConfigFileUsed()))
	}

	_, err = p.Run()
	return err
}

func newSource(s config.Settings, clk clock.Clock, logger *zap.Logger) (sensor.Source, error) {
	switch s.Source.Kind {
	case config.SourceNMEA:
		return sensor.NewNMEA(s.Source.NMEAPort, s.Source.NMEABaud, s.DeclinationDegrees, clk, logger), nil
	case config.SourceBLE:
		return sensor.NewBLE(s.Source.BLEName, s.Source.BLEService, s.Source.BLECharacteristic, clk, logger)
	default:
		return sensor.NewDemo(clk, time.Now().UnixNano()), nil
	}
}
