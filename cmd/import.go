package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/attendance/internal/constants"
	"github.com/kozaktomas/attendance/internal/database/jsonfile"
	"github.com/kozaktomas/attendance/internal/engine"
	"github.com/kozaktomas/attendance/internal/extractor"
	"github.com/kozaktomas/attendance/internal/facematch"
)

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Bulk-register faces from a directory of images or an existing registry file",
	Long: `Bulk-register faces.

From a directory: every image directly inside a subdirectory is registered under
the subdirectory name; images at the top level are registered under their file
name ("Ada_Lovelace_2.jpg" becomes "Ada Lovelace"). Names that loosely match an
existing identity (case, diacritics, dashes) are added to that identity.

From a registry file: every reference embedding of a registered_faces.json file
is added to the configured backend, which is how a JSON registry is moved to
PostgreSQL.

Examples:
  attendance import ./faces
  attendance import ./faces --concurrency 8 --json
  attendance import --from-registry registered_faces.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Int("concurrency", constants.ImportWorkerPoolSize, "Number of parallel extractor calls")
	importCmd.Flags().String("from-registry", "", "Import a registered_faces.json file instead of images")
	importCmd.Flags().Bool("json", false, "Output as JSON instead of progress bar")
}

// ImportResult represents the result of an import run
type ImportResult struct {
	Success       bool   `json:"success"`
	Sources       int    `json:"sources"`
	Registered    int    `json:"registered"`
	Errors        int    `json:"errors"`
	Identities    int    `json:"identities"`
	DurationMs    int64  `json:"duration_ms"`
	DurationHuman string `json:"duration_human,omitempty"`
}

// importJob is one image to register under Name
type importJob struct {
	Name string
	Path string
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

func isImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// nameFromFile derives a person name from an image file name.
func nameFromFile(file string) string {
	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	fields := strings.Fields(strings.ReplaceAll(stem, "_", " "))
	if len(fields) > 1 && strings.Trim(fields[len(fields)-1], "0123456789") == "" {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// collectImportJobs lists the images of dir in a stable order.
func collectImportJobs(dir string) ([]importJob, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var jobs []importJob
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if !e.IsDir() {
			if isImage(e.Name()) {
				jobs = append(jobs, importJob{Name: nameFromFile(e.Name()), Path: path})
			}
			continue
		}
		sub, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		for _, f := range sub {
			if !f.IsDir() && isImage(f.Name()) {
				jobs = append(jobs, importJob{Name: e.Name(), Path: filepath.Join(path, f.Name())})
			}
		}
	}

	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].Path < jobs[j].Path })
	return jobs, nil
}

// resolveName maps name onto an existing identity when it matches loosely.
func resolveName(reg facematch.Registry, name string) string {
	if id, ok := reg.FindLoose(name); ok {
		return id.Name
	}
	return facematch.CanonicalName(name)
}

func runImport(cmd *cobra.Command, args []string) error {
	fromRegistry := mustGetString(cmd, "from-registry")
	jsonOutput := mustGetBool(cmd, "json")
	if (len(args) == 0) == (fromRegistry == "") {
		return errors.New("pass either a directory or --from-registry")
	}

	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, backend, err := openEngine(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer backend.Close()

	startTime := time.Now()
	var result ImportResult
	if fromRegistry != "" {
		result, err = importRegistryFile(ctx, eng, fromRegistry)
	} else {
		concurrency := max(1, mustGetInt(cmd, "concurrency"))
		result, err = importDirectory(ctx, eng, extractor.NewClient(cfg.Embedding.ExtractorURL), args[0], concurrency, !jsonOutput)
	}
	if err != nil {
		return err
	}

	duration := time.Since(startTime)
	result.Success = result.Errors == 0
	result.DurationMs = duration.Milliseconds()

	if jsonOutput {
		return outputJSON(result)
	}

	fmt.Println("\nImport complete!")
	fmt.Printf("  Sources:    %d\n", result.Sources)
	fmt.Printf("  Registered: %d\n", result.Registered)
	if result.Errors > 0 {
		fmt.Printf("  Errors:     %d\n", result.Errors)
	}
	fmt.Printf("  Identities: %d\n", result.Identities)
	fmt.Printf("  Duration:   %s\n", formatDuration(duration))
	return nil
}

// importRegistryFile copies every reference of a JSON registry into eng.
func importRegistryFile(ctx context.Context, eng *engine.Engine, path string) (ImportResult, error) {
	if _, err := os.Stat(path); err != nil {
		return ImportResult{}, fmt.Errorf("registry file: %w", err)
	}
	src, err := jsonfile.NewRegistry(path).Load(ctx)
	if err != nil {
		return ImportResult{}, err
	}

	refs := src.References()
	result := ImportResult{Sources: len(refs)}
	for _, ref := range refs {
		count, err := eng.RegisterIdentity(ctx, ref.Name, ref.Embedding)
		if err != nil {
			log.WithError(err).WithField("name", ref.Name).Error("Failed to import reference")
			result.Errors++
			continue
		}
		result.Registered++
		result.Identities = count
	}
	if result.Identities == 0 {
		result.Identities = eng.Snapshot().Count()
	}
	return result, nil
}

// importDirectory extracts faces from every image of dir in parallel and then
// registers them in path order.
func importDirectory(ctx context.Context, eng *engine.Engine, det detector, dir string, concurrency int, showProgress bool) (ImportResult, error) {
	jobs, err := collectImportJobs(dir)
	if err != nil {
		return ImportResult{}, err
	}
	result := ImportResult{Sources: len(jobs)}
	if len(jobs) == 0 {
		result.Identities = eng.Snapshot().Count()
		return result, nil
	}

	var bar *progressbar.ProgressBar
	if showProgress {
		fmt.Printf("Found %d images to import\n\n", len(jobs))
		bar = progressbar.NewOptions(len(jobs),
			progressbar.OptionSetDescription("Extracting faces"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	detections := make([][]facematch.Detection, len(jobs))
	failed := make([]bool, len(jobs))
	var errorCount int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			dets, err := detectImage(gctx, det, job.Path)
			if err != nil {
				log.WithError(err).WithField("path", job.Path).Warn("Face extraction failed")
				failed[i] = true
				atomic.AddInt64(&errorCount, 1)
			} else {
				detections[i] = dets
			}
			if bar != nil {
				bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	if bar != nil {
		fmt.Println()
	}
	result.Errors = int(errorCount)

	for i, job := range jobs {
		if failed[i] {
			continue
		}
		name := resolveName(eng.Snapshot(), job.Name)
		count, err := eng.RegisterFromDetections(ctx, detections[i], name)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{"path": job.Path, "name": name}).Warn("Skipping image")
			result.Errors++
			continue
		}
		result.Registered++
		result.Identities = count
	}
	if result.Registered == 0 {
		result.Identities = eng.Snapshot().Count()
	}
	return result, nil
}
