package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List stored scan runs, or the detections of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx := cmd.Context()

		db, err := openStore(ctx)

		if err != nil {
			return err
		}

		defer db.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer w.Flush()

		if len(args) == 0 {
			runs, err := db.Runs(ctx)

			if err != nil {
				return err
			}

			fmt.Fprintln(w, "RUN\tSTARTED\tCASCADE\tNETWORK")

			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID,
					r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Cascade, r.Network)
			}

			return nil
		}

		run, err := db.Run(ctx, args[0])

		if err != nil {
			return fmt.Errorf("run %s: %w", args[0], err)
		}

		dets, err := db.Detections(ctx, run.ID)

		if err != nil {
			return err
		}

		fmt.Fprintf(w, "SOURCE\tFACE\tBOX\tSCORE\tVERIFIED\n")

		for _, d := range dets {
			b := d.Face.Box
			fmt.Fprintf(w, "%s\t%d\t(%d %d %d %d)\t%f\t%v\n", d.Source, d.Face.ID,
				b.Min.X, b.Min.Y, b.Max.X, b.Max.Y, d.Face.Score, d.Face.Verified)
		}

		return nil
	},
}

func init() {
	addStoreFlags(runsCmd)
	rootCmd.AddCommand(runsCmd)
}
