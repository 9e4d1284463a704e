package main

import (
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/cobra"
	"github.com/swdee/go-facedetect/convnet"
	"github.com/swdee/go-facedetect/preprocess"
	"gocv.io/x/gocv"
)

// scoreMean and scoreStd normalise whole face crops the way the face
// network was trained
const (
	scoreMean = 108.08409242
	scoreStd  = 255.0
)

var scoreCmd = &cobra.Command{
	Use:   "score <image>...",
	Short: "Score whole images with the network, each image being a face crop",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx := cmd.Context()

		if flags.net == "" {
			return fmt.Errorf("a network file is required, see --net")
		}

		net, err := convnet.ParseFile(flags.net)

		if err != nil {
			return err
		}

		mean, std := scoreMean, scoreStd

		// explicit normalisation flags override the training values
		if cmd.Flags().Changed("input-mean") {
			mean = flags.inputMean
		}

		if cmd.Flags().Changed("input-std") {
			std = flags.inputStd
		}

		in := net.InputSize()
		norm := preprocess.NewNormalizer(in.Width, in.Height, mean, std)
		norm.SetLetterbox(flags.letterbox)
		defer norm.Close()

		logger.Debugf(ctx, "scoring with network %q, input %s, mean %v, std %v",
			net.Name(), in, mean, std)

		for _, imgFile := range args {

			img := gocv.IMRead(imgFile, gocv.IMReadGrayScale)

			if img.Empty() {
				return fmt.Errorf("error reading image from: %s", imgFile)
			}

			input, err := norm.Input(img)
			img.Close()

			if err != nil {
				return fmt.Errorf("error preparing %s: %w", imgFile, err)
			}

			score, err := net.Forward(input)

			if err != nil {
				return fmt.Errorf("error scoring %s: %w", imgFile, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %.8f\n", imgFile, score)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
