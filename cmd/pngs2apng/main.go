package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:      "pngs2apng",
		Usage:     "Assemble an animated PNG from ordered PNG frames",
		ArgsUsage: "<dst> <src>...",
		Flags:     loggingFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() == 0 {
				return cli.ShowAppHelp(cmd)
			}
			ctx, err := setupLogging(ctx, cmd)
			if err != nil {
				return err
			}
			args := cmd.Args().Slice()
			return runAssemble(ctx, args[0], args[1:])
		},
		Commands: []*cli.Command{
			assembleCmd(),
			inspectCmd(),
			serveCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
