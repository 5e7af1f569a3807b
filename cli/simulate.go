package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matt-g-everett/ledtimeline/pulse"
	"github.com/matt-g-everett/ledtimeline/stream"
	"github.com/matt-g-everett/ledtimeline/timeline"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	Pulses int
	Every  int
	Format string
	Jump   time.Duration
	Rate   float64
}

// sample is one line of JSON simulate output.
type sample struct {
	Pulse    uint64            `json:"pulse"`
	Snapshot timeline.Snapshot `json:"snapshot"`
	Frame    []string          `json:"frame"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play the show headless and print its state",
		Long: `Play the configured show without a broker or wall clock, printing the
animation tree and frame every few pulses until it stops or the pulse limit
is reached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(rootOpts, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.Pulses, "pulses", 600, "maximum number of pulses")
	cmd.Flags().IntVar(&opts.Every, "every", 60, "print every N pulses")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.Flags().DurationVar(&opts.Jump, "jump", 0, "jump to this time before playing")
	cmd.Flags().Float64Var(&opts.Rate, "rate", 0, "override the show rate (0 keeps the configured rate)")

	return cmd
}

func runSimulate(rootOpts *RootOptions, opts *SimulateOptions, w io.Writer) error {
	if opts.Format != "text" && opts.Format != "json" {
		return WrapExitError(ExitFailure, "invalid format", fmt.Errorf("%q is not text or json", opts.Format))
	}
	if opts.Pulses < 1 || opts.Every < 1 {
		return WrapExitError(ExitFailure, "invalid flags", fmt.Errorf("--pulses and --every must be positive"))
	}

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

	if opts.Rate != 0 {
		show.SetRate(opts.Rate)
	}
	if opts.Jump > 0 {
		show.JumpTo(opts.Jump)
	}
	show.Play()

	enc := json.NewEncoder(w)
	for i := 1; i <= opts.Pulses; i++ {
		timer.Pulse()
		done := show.Status() == timeline.Stopped
		if i%opts.Every == 0 || done {
			if err := printSample(w, enc, opts.Format, timer.Pulses(), show, frame); err != nil {
				return err
			}
		}
		if done {
			break
		}
	}
	return nil
}

func printSample(w io.Writer, enc *json.Encoder, format string, n uint64, show timeline.Animation, frame *stream.Frame) error {
	pixels := make([]string, frame.Len())
	for i := range pixels {
		pixels[i] = frame.At(i).Clamped().Hex()
	}
	if format == "json" {
		return enc.Encode(sample{Pulse: n, Snapshot: show.Snapshot(), Frame: pixels})
	}

	if _, err := fmt.Fprintf(w, "pulse %d\n", n); err != nil {
		return err
	}
	if err := show.Snapshot().Write(w); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "frame %s\n", strings.Join(pixels, " "))
	return err
}
