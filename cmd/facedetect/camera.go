package main

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/cobra"
	"github.com/swdee/go-facedetect/postprocess"
	"github.com/swdee/go-facedetect/preprocess"
	"github.com/swdee/go-facedetect/render"
	"github.com/swdee/go-facedetect/tracker"
	"gocv.io/x/gocv"
)

var (
	cameraDevice string
	cameraTrack  bool
)

var cameraCmd = &cobra.Command{
	Use:   "camera",
	Short: "Detect faces on a live camera in a window, press q to quit and f to print face scores",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx := cmd.Context()

		s, err := newSession(ctx)

		if err != nil {
			return err
		}

		defer s.Close()

		capture, err := gocv.OpenVideoCapture(cameraDevice)

		if err != nil {
			return fmt.Errorf("error opening camera %s: %w", cameraDevice, err)
		}

		defer capture.Close()

		window := gocv.NewWindow("Face Detect")
		defer window.Close()

		var ft *tracker.FaceTracker

		if cameraTrack {
			ft = tracker.NewFaceTracker(tracker.DefaultParams())
		}

		font := render.DefaultFont()
		palette := s.Params().Overlay.Palette

		if cameraTrack {
			palette = render.ByID
		}

		frame := gocv.NewMat()
		defer frame.Close()

		for ctx.Err() == nil {

			if ok := capture.Read(&frame); !ok || frame.Empty() {
				return fmt.Errorf("empty frame from camera %s", cameraDevice)
			}

			faces, err := s.Detect(ctx, frame)

			if err != nil {
				return err
			}

			if ft != nil {
				faces, err = ft.Update(faces)

				if err != nil {
					return fmt.Errorf("error tracking faces: %w", err)
				}
			}

			var labelFont *render.Font

			if flags.labels {
				labelFont = &font
			}

			// keep an undrawn copy for scoring
			clean := frame.Clone()
			render.FaceBoxes(&frame, faces, palette, labelFont, 2)
			window.IMShow(frame)

			switch key := window.WaitKey(10); key {
			case 'c', 'q':
				clean.Close()
				return nil

			case 'f':
				printScores(cmd, s, clean, faces)
			}

			clean.Close()
		}

		return nil
	},
}

// scorer is the part of a session used to score a face region
type scorer interface {
	Score(ctx context.Context, roi gocv.Mat) (float64, error)
}

// printScores scores each face region of the frame
func printScores(cmd *cobra.Command, s scorer, frame gocv.Mat, faces []postprocess.Face) {

	ctx := cmd.Context()

	for _, f := range faces {
		roi, err := preprocess.Crop(frame, f.Box)

		if err != nil {
			roi.Close()
			logger.Warnf(ctx, "face %d: %v", f.ID, err)
			continue
		}

		score, err := s.Score(ctx, roi)
		roi.Close()

		if err != nil {
			logger.Errorf(ctx, "face %d: %v", f.ID, err)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Score: face %d %f\n", f.ID, score)
	}
}

func init() {
	cameraCmd.Flags().StringVarP(&cameraDevice, "device", "d", "0", "Camera device ID or video file")
	cameraCmd.Flags().BoolVar(&cameraTrack, "track", true, "Keep face IDs stable between frames")
	rootCmd.AddCommand(cameraCmd)
}
