package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/pngs2apng/internal/logger"
	"github.com/samcharles93/pngs2apng/pkg/apng"
)

func assembleCmd() *cli.Command {
	var output string

	return &cli.Command{
		Name:      "assemble",
		Usage:     "Assemble PNG frames into an APNG",
		ArgsUsage: "<src>...",
		Before:    setupLogging,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "destination APNG file",
				Destination: &output,
				Required:    true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runAssemble(ctx, output, cmd.Args().Slice())
		},
	}
}

func runAssemble(ctx context.Context, dst string, srcs []string) error {
	log := logger.FromContext(ctx)

	asm := apng.Assembler{
		OnFrame: func(f apng.Frame) {
			log.Debug("frame written",
				"index", f.Index,
				"source", f.Path,
				"width", f.Width,
				"height", f.Height,
				"sequence", f.SequenceNumber,
				"bytes", f.DataSize,
			)
		},
	}

	start := time.Now()
	if err := asm.Assemble(dst, srcs); err != nil {
		if removePartial(dst, err) {
			if rmErr := os.Remove(dst); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				log.Warn("remove partial output", "path", dst, "error", rmErr)
			}
		}
		return err
	}

	attrs := []any{"output", dst, "frames", len(srcs), "elapsed", time.Since(start).Round(time.Millisecond)}
	if st, err := os.Stat(dst); err == nil {
		attrs = append(attrs, "bytes", st.Size())
	}
	log.Info("animation assembled", attrs...)
	return nil
}

// removePartial reports whether a failed assembly left a partial dst behind.
// Nothing is written when there are no sources or dst could not be opened.
func removePartial(dst string, err error) bool {
	if errors.Is(err, apng.ErrNoSources) {
		return false
	}
	var pe *fs.PathError
	if errors.As(err, &pe) && pe.Op == "open" && pe.Path == dst {
		return false
	}
	return true
}
