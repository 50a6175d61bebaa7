package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/pngs2apng/pkg/apng"
)

func inspectCmd() *cli.Command {
	var (
		asJSON bool
		verify bool
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the chunk structure of a PNG or APNG file",
		ArgsUsage: "<file>",
		Before:    setupLogging,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the inspection as JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "verify", Usage: "fail on CRC or sequence number problems", Destination: &verify},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("inspect: expected exactly one file, got %d", cmd.NArg())
			}
			path := cmd.Args().First()

			info, err := apng.InspectFile(path)
			if err != nil {
				return fmt.Errorf("inspect %s: %w", path, err)
			}
			if asJSON {
				err = printInfoJSON(os.Stdout, info)
			} else {
				err = printInfo(os.Stdout, path, info)
			}
			if err != nil {
				return err
			}
			if verify {
				if err := info.Verify(); err != nil {
					return fmt.Errorf("verify %s: %w", path, err)
				}
			}
			return nil
		},
	}
}

func printInfoJSON(w io.Writer, info *apng.Info) error {
	b, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

func printInfo(w io.Writer, path string, info *apng.Info) error {
	fmt.Fprintf(w, "file:   %s (%d bytes)\n", path, info.Size)
	if h := info.Header; h != nil {
		fmt.Fprintf(w, "image:  %dx%d, bit depth %d, color type %d\n",
			h.Width, h.Height, h.BitDepth, h.ColorType)
	}
	if a := info.Animation; a != nil {
		plays := "forever"
		if a.NumPlays > 0 {
			plays = fmt.Sprintf("%d times", a.NumPlays)
		}
		fmt.Fprintf(w, "frames: %d, looping %s\n", a.NumFrames, plays)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OFFSET\tTYPE\tLENGTH\tSEQ\tCRC\t")
	for _, c := range info.Chunks {
		seq := "-"
		if c.Sequence != nil {
			seq = fmt.Sprint(*c.Sequence)
		}
		crc := fmt.Sprintf("%08x", c.CRC)
		if !c.Valid() {
			crc += fmt.Sprintf(" (want %08x)", c.ComputedCRC)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t\n", c.Offset, c.Type, c.Length, seq, crc)
	}
	return tw.Flush()
}
