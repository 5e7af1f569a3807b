package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matt-g-everett/ledtimeline/stream"
	"github.com/matt-g-everett/ledtimeline/timeline"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config and print the show tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd.OutOrStdout())
		},
	}
}

func runValidate(opts *RootOptions, w io.Writer) error {
	cfg, err := stream.LoadConfig(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid config", err)
	}
	show, err := stream.BuildShow(nil, stream.NewFrame(cfg.Strip.Pixels), cfg.Show)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid show", err)
	}

	fmt.Fprintf(w, "config ok: %d pixels at %d fps to %s\n", cfg.Strip.Pixels, cfg.Strip.FrameRate, cfg.Mqtt.Topics.Stream)
	if show.CycleCount() == timeline.Indefinite {
		fmt.Fprintf(w, "show cycle %v, repeats forever\n", show.CycleDuration())
	} else {
		fmt.Fprintf(w, "show cycle %v, total %v\n", show.CycleDuration(), show.TotalDuration())
	}
	return show.Snapshot().Write(w)
}
