package main

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dysc/internal/diagfmt"
)

func setupColor(cmd *cobra.Command) error {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	mode, err := parseSwitch("color", value)
	if err != nil {
		return err
	}
	if mode == switchAuto {
		color.NoColor = color.NoColor || !isTerminal(os.Stderr)
		return nil
	}
	color.NoColor = !mode.enabled(os.Stderr)
	return nil
}

func prettyOpts() diagfmt.PrettyOpts {
	width := terminalWidth(os.Stderr)
	if width > 40 {
		width -= 20
	} else {
		width = 0
	}
	return diagfmt.PrettyOpts{Color: !color.NoColor, Width: width}
}

func reportFatal(w io.Writer, err error) {
	diagfmt.Pretty(w, "dysc", err, prettyOpts())
}
