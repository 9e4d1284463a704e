package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/cobra"
	facedetect "github.com/swdee/go-facedetect"
)

// detectorFlags holds the detection configuration shared by all commands
type detectorFlags struct {
	cascade        string
	net            string
	scaleFactor    float64
	minNeighbors   int
	minSize        int
	maxSize        int
	scoreThreshold float64
	nmsThreshold   float64
	maxFaces       int
	inputMean      float64
	inputStd       float64
	letterbox      bool
	labels         bool
}

var (
	flags    detectorFlags
	logLevel string
	cpuCores []int
)

var rootCmd = &cobra.Command{
	Use:           "facedetect",
	Short:         "Cascade face detection with convolutional network verification",
	Version:       fmt.Sprintf("api %d", facedetect.APIVersion),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {

		level, err := parseLogLevel(logLevel)

		if err != nil {
			return err
		}

		cmd.SetContext(withLogger(cmd.Context(), level))

		if len(cpuCores) > 0 {
			if err := facedetect.SetCPUAffinity(cpuCores); err != nil {
				logger.Warnf(cmd.Context(), "Failed to set CPU Affinity: %v", err)
			}
		}

		return nil
	},
}

// Execute runs the command line, cancelling the context on Ctrl+C
func Execute() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	belt.Flush(rootCmd.Context())

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	p := facedetect.DefaultParams()
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&logLevel, "log-level", "info", "Logging level [trace|debug|info|warning|error]")
	pf.IntSliceVar(&cpuCores, "cpu-cores", nil, "CPU cores to run on, eg: 4,5,6,7")

	pf.StringVarP(&flags.cascade, "cascade", "c", "haarcascade_frontalface_alt.xml", "OpenCV cascade classifier file")
	pf.StringVarP(&flags.net, "net", "n", "", "Network XML file used to verify faces, empty for cascade only")
	pf.Float64Var(&flags.scaleFactor, "scale-factor", p.ScaleFactor, "Cascade image reduction at each scale")
	pf.IntVar(&flags.minNeighbors, "min-neighbors", p.MinNeighbors, "Cascade hits needed to keep a face")
	pf.IntVar(&flags.minSize, "min-size", p.MinSize, "Smallest face size in pixels")
	pf.IntVar(&flags.maxSize, "max-size", p.MaxSize, "Largest face size in pixels, 0 is unbounded")
	pf.Float64Var(&flags.scoreThreshold, "score-threshold", p.Faces.ScoreThreshold, "Minimum network score to keep a face")
	pf.Float64Var(&flags.nmsThreshold, "nms-threshold", p.Faces.NMSThreshold, "Overlap above which the lower scoring face is dropped, 0 disables")
	pf.IntVar(&flags.maxFaces, "max-faces", p.Faces.MaxFaces, "Maximum faces per image, 0 is unlimited")
	pf.Float64Var(&flags.inputMean, "input-mean", p.InputMean, "Subtracted from each pixel before scoring")
	pf.Float64Var(&flags.inputStd, "input-std", p.InputStd, "Divides each pixel before scoring")
	pf.BoolVar(&flags.letterbox, "letterbox", p.Letterbox, "Keep the face aspect ratio when resizing for scoring")
	pf.BoolVar(&flags.labels, "labels", true, "Draw face ID and score labels")
}

// params builds the session parameters from the command line
func (f detectorFlags) params() facedetect.Params {

	p := facedetect.DefaultParams()
	p.ScaleFactor = f.scaleFactor
	p.MinNeighbors = f.minNeighbors
	p.MinSize = f.minSize
	p.MaxSize = f.maxSize
	p.Faces.ScoreThreshold = f.scoreThreshold
	p.Faces.NMSThreshold = f.nmsThreshold
	p.Faces.MaxFaces = f.maxFaces
	p.InputMean = f.inputMean
	p.InputStd = f.inputStd
	p.Letterbox = f.letterbox
	p.Overlay.Labels = f.labels

	return p
}

// newSession loads the detector given on the command line
func newSession(ctx context.Context, opts ...facedetect.Option) (*facedetect.Session, error) {

	opts = append([]facedetect.Option{facedetect.WithParams(flags.params())}, opts...)

	s, err := facedetect.NewSession(ctx, flags.cascade, flags.net, opts...)

	if err != nil {
		return nil, fmt.Errorf("error loading detector: %w", err)
	}

	return s, nil
}

var logLevels = map[string]logger.Level{
	"trace":   logger.LevelTrace,
	"debug":   logger.LevelDebug,
	"info":    logger.LevelInfo,
	"warn":    logger.LevelWarning,
	"warning": logger.LevelWarning,
	"error":   logger.LevelError,
	"fatal":   logger.LevelFatal,
}

func parseLogLevel(s string) (logger.Level, error) {

	level, ok := logLevels[strings.ToLower(strings.TrimSpace(s))]

	if !ok {
		return logger.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}

	return level, nil
}

// withLogger installs a logrus logger at the given level in ctx and as the
// default for code without a logger in its context
func withLogger(ctx context.Context, level logger.Level) context.Context {

	l := logrus.Default().WithLevel(level)
	ctx = logger.CtxWithLogger(ctx, l)

	logger.Default = func() logger.Logger {
		return l
	}

	return ctx
}
