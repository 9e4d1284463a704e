package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	facedetect "github.com/swdee/go-facedetect"
	"github.com/swdee/go-facedetect/postprocess"
	"github.com/swdee/go-facedetect/store"
	"gocv.io/x/gocv"
)

// imageExts are the file extensions picked up when scanning a directory
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".pgm":  true,
	".tif":  true,
	".tiff": true,
}

var (
	scanWorkers int
	scanList    string
	dbDriver    string
	dbDSN       string
)

// scanResult is the outcome of detecting faces in one image
type scanResult struct {
	path  string
	faces []postprocess.Face
	err   error
}

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Detect faces in every image of a directory in parallel and store the results",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx := cmd.Context()

		var files []string
		var err error

		switch {
		case scanList != "":
			files, err = loadFileList(scanList)
		case len(args) == 1:
			files, err = findImages(args[0])
		default:
			return fmt.Errorf("give a directory to scan or a file list with --list")
		}

		if err != nil {
			return err
		}

		if len(files) == 0 {
			return fmt.Errorf("no images found")
		}

		db, err := openStore(ctx)

		if err != nil {
			return err
		}

		defer db.Close()

		pool, err := facedetect.NewPool(ctx, scanWorkers, flags.cascade, flags.net,
			facedetect.WithParams(flags.params()))

		if err != nil {
			return fmt.Errorf("error creating detector pool: %w", err)
		}

		defer pool.Close()

		params, err := json.Marshal(flags.params())

		if err != nil {
			return fmt.Errorf("error encoding parameters: %w", err)
		}

		run := &store.Run{
			Cascade: flags.cascade,
			Network: flags.net,
			Params:  params,
		}

		if err := db.CreateRun(ctx, run); err != nil {
			return err
		}

		logger.Infof(ctx, "Scanning %d images with %d workers, run %s", len(files), pool.Size(), run.ID)

		bar := progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Scanning"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)

		scanCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		results := scanFiles(scanCtx, pool.Size(), files, func(ctx context.Context, path string) ([]postprocess.Face, error) {
			s := pool.Get()
			defer pool.Return(s)

			return detectFile(ctx, s, path)
		})

		total, failed := 0, 0

		for res := range results {
			_ = bar.Add(1)

			if res.err != nil {
				failed++
				logger.Errorf(ctx, "%s: %v", res.path, res.err)
				continue
			}

			if err := db.AddDetections(ctx, run.ID, res.path, res.faces); err != nil {
				cancel()
				drain(results)
				return err
			}

			total += len(res.faces)
		}

		_ = bar.Finish()

		fmt.Fprintf(cmd.OutOrStdout(), "\nrun %s: %d faces in %d images, %d failed\n",
			run.ID, total, len(files)-failed, failed)

		return ctx.Err()
	},
}

// detectFunc finds the faces in one image file
type detectFunc func(ctx context.Context, path string) ([]postprocess.Face, error)

// scanFiles runs detect over files with the given number of workers.  The
// returned channel is closed once all files are done or ctx is cancelled,
// workers stop sending results as soon as ctx is done.
func scanFiles(ctx context.Context, workers int, files []string, detect detectFunc) <-chan scanResult {

	tasks := make(chan string)
	results := make(chan scanResult, workers)

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for path := range tasks {
				faces, err := detect(ctx, path)

				select {
				case results <- scanResult{path: path, faces: faces, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(tasks)

		for _, f := range files {
			select {
			case tasks <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// drain discards results until the workers have exited
func drain(results <-chan scanResult) {
	for range results {
	}
}

func detectFile(ctx context.Context, s *facedetect.Session, path string) ([]postprocess.Face, error) {

	img := gocv.IMRead(path, gocv.IMReadColor)

	if img.Empty() {
		return nil, fmt.Errorf("error reading image")
	}

	defer img.Close()

	return s.Detect(ctx, img)
}

// findImages returns the image files below dir in lexical order
func findImages(dir string) ([]string, error) {

	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && imageExts[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("error reading directory %s: %w", dir, err)
	}

	sort.Strings(files)

	return files, nil
}

// openStore connects to the detection store given on the command line
func openStore(ctx context.Context) (*store.Store, error) {

	dsn := dbDSN

	if dsn == "" {
		dsn = os.Getenv("FACEDETECT_DSN")
	}

	if dsn == "" {
		dsn = "facedetect.db"
	}

	db, err := store.Open(ctx, dbDriver, dsn)

	if err != nil {
		return nil, fmt.Errorf("failed to open detection store: %w", err)
	}

	return db, nil
}

func init() {
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 4, "Number of parallel detector sessions")
	scanCmd.Flags().StringVarP(&scanList, "list", "l", "", "Text file listing one image path per line, used instead of a directory")
	addStoreFlags(scanCmd)
	rootCmd.AddCommand(scanCmd)
}

// addStoreFlags adds the detection store connection flags to cmd
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&dbDriver, "db-driver", store.DriverSQLite, "Detection store driver [sqlite|pgx]")
	cmd.Flags().StringVar(&dbDSN, "db", "", "Detection store connection string (default: $FACEDETECT_DSN or facedetect.db)")
}
