package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/cobra"
	facedetect "github.com/swdee/go-facedetect"
	"github.com/swdee/go-facedetect/preprocess"
	"github.com/swdee/go-facedetect/render"
	"gocv.io/x/gocv"
)

var (
	yuvWidth  int
	yuvHeight int
	yuvFormat string
	yuvOut    string
)

// rawExts are the extensions of files holding a raw YUV frame, any other
// file is read as an image and encoded to a frame first
var rawExts = map[string]bool{
	".yuv":  true,
	".raw":  true,
	".nv21": true,
	".nv12": true,
	".i420": true,
}

var yuvCmd = &cobra.Command{
	Use:   "yuv <frame>",
	Short: "Run one YUV frame through the detector boundary and save the overlay as PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx := cmd.Context()

		format, err := preprocess.ParseYUVFormat(yuvFormat)

		if err != nil {
			return err
		}

		frame, w, h, err := readFrame(args[0], format)

		if err != nil {
			return err
		}

		reg := facedetect.NewRegistry()
		defer reg.Close()

		handle, err := reg.Load(ctx, flags.cascade, flags.net,
			facedetect.WithParams(flags.params()), facedetect.WithYUVFormat(format))

		if err != nil {
			return err
		}

		s, err := reg.Session(handle)

		if err != nil {
			return err
		}

		// start the overlay from the frame itself so the faces are drawn over
		// the picture
		rgba, err := background(s, w, h, frame)

		if err != nil {
			return err
		}

		n, err := reg.FindFaces(ctx, w, h, frame, rgba)

		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d faces\n", args[0], n)

		if yuvOut == "" {
			return nil
		}

		img, err := render.NewPackedImage(rgba, w, h)

		if err != nil {
			return err
		}

		out, err := img.ToMat()

		if err != nil {
			return err
		}

		defer out.Close()

		if ok := gocv.IMWrite(yuvOut, out); !ok {
			return fmt.Errorf("failed to save the image to %s", yuvOut)
		}

		logger.Infof(ctx, "Saved overlay to %s", yuvOut)

		return nil
	},
}

// background converts the frame to packed pixels.  Colour conversion needs
// even dimensions so odd sized frames use the grey luma plane.
func background(s *facedetect.Session, w, h int, frame []byte) ([]uint32, error) {

	var bgr gocv.Mat
	var err error

	if w%2 == 0 && h%2 == 0 {
		bgr, err = s.Frame(w, h, frame)
	} else {
		var luma gocv.Mat
		luma, err = preprocess.Luma(w, h, frame)

		if err == nil {
			bgr = gocv.NewMat()
			gocv.CvtColor(luma, &bgr, gocv.ColorGrayToBGR)
			luma.Close()
		}
	}

	if err != nil {
		return nil, err
	}

	defer bgr.Close()

	return render.PackMat(bgr)
}

// readFrame loads a raw frame of the dimensions given on the command line,
// or encodes an image file as a frame cropped to even dimensions
func readFrame(path string, format preprocess.YUVFormat) ([]byte, int, int, error) {

	ext := strings.ToLower(filepath.Ext(path))

	if rawExts[ext] {
		if yuvWidth <= 0 || yuvHeight <= 0 {
			return nil, 0, 0, fmt.Errorf("raw frames need --width and --height")
		}

		data, err := os.ReadFile(path)

		if err != nil {
			return nil, 0, 0, fmt.Errorf("error reading frame: %w", err)
		}

		if err := preprocess.CheckFrame(yuvWidth, yuvHeight, data); err != nil {
			return nil, 0, 0, err
		}

		return data, yuvWidth, yuvHeight, nil
	}

	img := gocv.IMRead(path, gocv.IMReadColor)

	if img.Empty() {
		return nil, 0, 0, fmt.Errorf("error reading image from: %s", path)
	}

	defer img.Close()

	w, h := img.Cols()&^1, img.Rows()&^1
	region := img.Region(image.Rect(0, 0, w, h))
	defer region.Close()

	even := region.Clone()
	defer even.Close()

	data, err := preprocess.FromBGR(even, format)

	if err != nil {
		return nil, 0, 0, err
	}

	return data, w, h, nil
}

func init() {
	yuvCmd.Flags().IntVar(&yuvWidth, "width", 0, "Frame width of raw frames")
	yuvCmd.Flags().IntVar(&yuvHeight, "height", 0, "Frame height of raw frames")
	yuvCmd.Flags().StringVarP(&yuvFormat, "format", "f", preprocess.NV21.String(), "Frame layout [nv21|nv12|i420]")
	yuvCmd.Flags().StringVarP(&yuvOut, "out", "o", "", "PNG file to save the overlay to")
	rootCmd.AddCommand(yuvCmd)
}
