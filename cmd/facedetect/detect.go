package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/cobra"
	"github.com/swdee/go-facedetect/render"
	"gocv.io/x/gocv"
)

var (
	detectOut   string
	detectQuery bool
)

var detectCmd = &cobra.Command{
	Use:   "detect <image>...",
	Short: "Detect faces in image files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx := cmd.Context()

		s, err := newSession(ctx)

		if err != nil {
			return err
		}

		defer s.Close()

		// optional querying of the loaded detector for printing to stdout
		if detectQuery {
			if err := s.Query(os.Stdout); err != nil {
				return fmt.Errorf("error querying detector: %w", err)
			}
		}

		if detectOut != "" {
			if err := os.MkdirAll(detectOut, 0o755); err != nil {
				return fmt.Errorf("error creating output directory: %w", err)
			}
		}

		font := render.DefaultFont()
		palette := s.Params().Overlay.Palette

		for _, imgFile := range args {

			img := gocv.IMRead(imgFile, gocv.IMReadColor)

			if img.Empty() {
				return fmt.Errorf("error reading image from: %s", imgFile)
			}

			start := time.Now()
			faces, err := s.Detect(ctx, img)
			end := time.Now()

			if err != nil {
				img.Close()
				return fmt.Errorf("error detecting faces in %s: %w", imgFile, err)
			}

			// output detection boxes to stdout
			for _, f := range faces {
				fmt.Printf("%s: face @ (%d %d %d %d) %f\n", imgFile,
					f.Box.Min.X, f.Box.Min.Y, f.Box.Max.X, f.Box.Max.Y, f.Score)
			}

			logger.Infof(ctx, "%s: %d faces, detection time=%s", imgFile, len(faces), end.Sub(start))

			if detectOut != "" {
				var labelFont *render.Font

				if flags.labels {
					labelFont = &font
				}

				render.FaceBoxes(&img, faces, palette, labelFont, 2)

				saveFile := filepath.Join(detectOut, filepath.Base(imgFile))

				if ok := gocv.IMWrite(saveFile, img); !ok {
					img.Close()
					return fmt.Errorf("failed to save the image to %s", saveFile)
				}

				logger.Infof(ctx, "Saved face detection result to %s", saveFile)
			}

			img.Close()
		}

		return nil
	},
}

func init() {
	detectCmd.Flags().StringVarP(&detectOut, "out", "o", "", "Directory to save images with face boxes drawn to")
	detectCmd.Flags().BoolVar(&detectQuery, "query", false, "Print the loaded detector configuration")
	rootCmd.AddCommand(detectCmd)
}
