package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fabworks/semgen/pkg/apperrors"
)

// folderTimestampLayout is the suffix format for dev mode folders, compact
// UTC so folder names sort chronologically.
const folderTimestampLayout = "20060102T150405Z"

// WriteSummary reports what a folder write did, with each list sorted by
// relative path.
type WriteSummary struct {
	// Written holds files created or overwritten this run.
	Written []string
	// Skipped holds existing files without a watermark, preserved as
	// manually maintained.
	Skipped []string
	// Unchanged holds files whose content was already byte-identical.
	Unchanged []string
	// OutputPath is the resolved model folder.
	OutputPath string
}

// Writer persists generated model folders.
type Writer struct {
	logger *zap.Logger
}

// NewWriter creates a Writer. A nil logger disables logging.
func NewWriter(logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{logger: logger.Named("output")}
}

// WriteOptions controls folder placement and overwrite behavior.
type WriteOptions struct {
	// BasePath is the directory the model folder is created under.
	BasePath string
	// ModelName names the folder. Case and spaces are preserved.
	ModelName string
	// DevMode appends a UTC timestamp suffix to the folder name so each
	// run lands in a fresh folder.
	DevMode bool
	// Overwrite permits writing into an existing folder in prod mode.
	Overwrite bool
	// Version is recorded in file watermarks.
	Version string
	// Timestamp, when set, pins both the folder suffix and the watermark
	// time for deterministic output. Folder suffix format is
	// 20060102T150405Z, watermark format is RFC 3339.
	Timestamp string
}

// OutputFolder resolves the model folder path for the given options. Dev mode
// appends "_<timestamp>"; prod mode uses the bare model name.
func OutputFolder(opts WriteOptions) string {
	if !opts.DevMode {
		return filepath.Join(opts.BasePath, opts.ModelName)
	}
	suffix := opts.Timestamp
	if suffix == "" {
		suffix = time.Now().UTC().Format(folderTimestampLayout)
	}
	return filepath.Join(opts.BasePath, opts.ModelName+"_"+suffix)
}

// WriteFolder writes the generated files to disk. Existing files with a
// watermark are overwritten, byte-identical files are left alone, and files
// without a watermark are preserved so manual edits survive regeneration.
// In prod mode an existing folder is an error unless Overwrite is set.
func (w *Writer) WriteFolder(files map[string]string, opts WriteOptions) (WriteSummary, error) {
	folder := OutputFolder(opts)

	if !opts.DevMode {
		if _, err := os.Stat(folder); err == nil && !opts.Overwrite {
			return WriteSummary{}, fmt.Errorf("%w: %s (enable overwrite, or use dev mode for safe iteration)",
				apperrors.ErrFolderExists, folder)
		}
	}

	if err := os.MkdirAll(filepath.Join(folder, "definition", "tables"), 0o755); err != nil {
		return WriteSummary{}, fmt.Errorf("create output folder %s: %w", folder, err)
	}

	summary := WriteSummary{OutputPath: folder}
	for _, relPath := range sortedKeys(files) {
		watermarked, err := AddWatermark(relPath, files[relPath], opts.Version, opts.Timestamp)
		if err != nil {
			return WriteSummary{}, fmt.Errorf("watermark %s: %w", relPath, err)
		}

		fullPath := filepath.Join(folder, filepath.FromSlash(relPath))
		existing, err := os.ReadFile(fullPath)
		switch {
		case os.IsNotExist(err):
			if err := WriteFileAtomically(fullPath, watermarked); err != nil {
				return WriteSummary{}, err
			}
			summary.Written = append(summary.Written, relPath)
		case err != nil:
			return WriteSummary{}, fmt.Errorf("read existing file %s: %w", fullPath, err)
		case string(existing) == watermarked:
			summary.Unchanged = append(summary.Unchanged, relPath)
		case IsAutoGenerated(string(existing)):
			if err := WriteFileAtomically(fullPath, watermarked); err != nil {
				return WriteSummary{}, err
			}
			summary.Written = append(summary.Written, relPath)
		default:
			w.logger.Info("preserving manually maintained file", zap.String("path", relPath))
			summary.Skipped = append(summary.Skipped, relPath)
		}
	}

	w.logger.Info("wrote model folder",
		zap.String("path", folder),
		zap.Int("written", len(summary.Written)),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Int("unchanged", len(summary.Unchanged)))
	return summary, nil
}

func sortedKeys(files map[string]string) []string {
	keys := make([]string, 0, len(files))
	for key := range files {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
