package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/matt-g-everett/ledtimeline/api"
	"github.com/matt-g-everett/ledtimeline/pulse"
	"github.com/matt-g-everett/ledtimeline/stream"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
	FadeFrames     int
	Paused         bool
	For            time.Duration
}

// connector opens the frame publisher and returns a function releasing it.
type connector func(c stream.MqttConfig, timeout, publishTimeout time.Duration) (stream.Publisher, func(), error)

func connectMQTT(c stream.MqttConfig, timeout, publishTimeout time.Duration) (stream.Publisher, func(), error) {
	client, err := stream.Connect(c, timeout)
	if err != nil {
		return nil, nil, err
	}
	return stream.NewMQTTPublisher(client, c.QoS, publishTimeout), func() { client.Disconnect(250) }, nil
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play the show and stream frames over MQTT",
		Long: `Play the configured show, publishing one frame per pulse to the stream
topic and serving the control API until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runShow(ctx, rootOpts, opts, connectMQTT)
		},
	}

	cmd.Flags().DurationVar(&opts.ConnectTimeout, "connect-timeout", 10*time.Second, "time to wait for the broker")
	cmd.Flags().DurationVar(&opts.PublishTimeout, "publish-timeout", time.Second, "time to wait for each frame to be sent")
	cmd.Flags().IntVar(&opts.FadeFrames, "fade-frames", 30, "frames used to fade to black on shutdown")
	cmd.Flags().BoolVar(&opts.Paused, "paused", false, "wait for a play command instead of starting the show")
	cmd.Flags().DurationVar(&opts.For, "for", 0, "stop after this long (0 runs until interrupted)")

	return cmd
}

func runShow(ctx context.Context, rootOpts *RootOptions, opts *RunOptions, connect connector) error {
	cfg, err := stream.LoadConfig(rootOpts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid config", err)
	}

	timer := pulse.NewTimer(cfg.PulseStep())
	frame := stream.NewFrame(cfg.Strip.Pixels)
	show, err := stream.BuildShow(timer, frame, cfg.Show)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid show", err)
	}
	show.SetOnFinished(func() {
		slog.Info("show finished", "pulses", timer.Pulses())
	})

	pub, release, err := connect(cfg.Mqtt, opts.ConnectTimeout, opts.PublishTimeout)
	if err != nil {
		return WrapExitError(ExitCommandError, "connecting to broker", err)
	}
	defer release()

	streamer := stream.NewStreamer(pub, cfg.Mqtt.Topics.Stream, frame)
	streamer.Attach(timer)

	server := api.NewApi(show, timer, cfg.API.Static)
	every := publishEvery(cfg.Strip.FrameRate)
	timer.OnPulse(func() {
		if timer.Pulses()%every == 0 {
			server.Publish()
		}
	})

	if opts.For > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.For)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	served := make(chan error, 1)
	go func() {
		err := server.Serve(ctx, cfg.API.Listen)
		if err != nil {
			cancel()
		}
		served <- err
	}()

	if !opts.Paused {
		show.Play()
	}
	slog.Info("streaming show",
		"topic", cfg.Mqtt.Topics.Stream,
		"pixels", cfg.Strip.Pixels,
		"frameRate", cfg.Strip.FrameRate,
		"listen", cfg.API.Listen)

	runErr := timer.Run(ctx, cfg.Interval())
	cancel()
	serveErr := <-served

	if err := streamer.FadeOut(opts.FadeFrames); err != nil {
		slog.Warn("fade out failed", "error", err)
	}
	sent, failed := streamer.Stats()
	slog.Info("stopped", "framesSent", sent, "framesFailed", failed)

	if serveErr != nil {
		return WrapExitError(ExitCommandError, "serving api", serveErr)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return fmt.Errorf("pulse timer: %w", runErr)
	}
	return nil
}

// publishEvery returns how many pulses pass between status broadcasts, giving
// roughly ten a second.
func publishEvery(frameRate int) uint64 {
	return uint64(max(frameRate/10, 1))
}
