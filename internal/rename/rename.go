// Package rename normalizes generated seat-view filenames.
//
// Files named like "stalls_r12-preview_stylized_1718000000.jpg" are renamed to
// "stalls_w12.jpg" in place. Matching is case-insensitive and anchored at the
// start of the name; the row digits are carried over unchanged.
package rename

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-pkgz/lgr"
)

var (
	// ErrNotFound marks a missing directory. Run logs it and reports Skipped.
	ErrNotFound = errors.New("directory not found")
	// ErrRenameCollision marks a source left in place because its destination exists.
	ErrRenameCollision = errors.New("destination already exists")
)

// Pattern matches renamable files and captures the row number.
var Pattern = regexp.MustCompile(`(?i)^stalls_r(\d+).*\.jpg$`)

// Options for a rename run.
type Options struct {
	Dir    string // directory to scan, not recursive
	DryRun bool   // report only, do not touch the filesystem
}

// Rename is a single source to destination move, names relative to the directory.
type Rename struct {
	From string
	To   string
}

// Failure is a matched file that was not renamed.
type Failure struct {
	Name string
	Err  error
}

// Report describes the outcome of a run.
type Report struct {
	Dir        string
	Skipped    bool // directory missing, nothing scanned
	DryRun     bool // Renamed lists planned moves only
	Renamed    []Rename
	Collisions []Failure
	Failed     []Failure
}

// Count returns the number of successful renames.
func (r Report) Count() int {
	return len(r.Renamed)
}

// String returns the one-line summary printed at the end of a run.
func (r Report) String() string {
	if r.Skipped {
		return fmt.Sprintf("Directory %s does not exist!", r.Dir)
	}
	if r.DryRun {
		return fmt.Sprintf("Would rename %d files in %s", r.Count(), r.Dir)
	}
	return fmt.Sprintf("Renamed %d files in %s", r.Count(), r.Dir)
}

// Destination returns the normalized name for a matching file name and true,
// or an empty string and false when name does not match Pattern.
func Destination(name string) (string, bool) {
	m := Pattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return "stalls_w" + m[1] + ".jpg", true
}

// Renamer renames matching files in a directory.
type Renamer struct {
	Log lgr.L
}

// Run scans opts.Dir and renames every matching file whose destination does
// not exist yet. Entries are visited in lexical order, so when two sources
// map to the same destination the first one wins.
//
// A missing directory is not an error: it is logged and reported as skipped.
// Collisions and rename failures are logged and recorded, never returned.
func (r *Renamer) Run(opts Options) (*Report, error) {
	l := r.Log
	if l == nil {
		l = lgr.NoOp
	}

	report := &Report{Dir: opts.Dir, DryRun: opts.DryRun}
	entries, err := os.ReadDir(opts.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.Logf("[WARN] directory %s does not exist, %v", opts.Dir, ErrNotFound)
			report.Skipped = true
			return report, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", opts.Dir, err)
	}

	// destinations claimed in this run, needed for dry runs where nothing
	// lands on disk
	claimed := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		dest, ok := Destination(name)
		if !ok {
			continue
		}

		newPath := filepath.Join(opts.Dir, dest)
		if claimed[dest] || exists(newPath) {
			l.Logf("[WARN] %s already exists, skipping %s", dest, name)
			report.Collisions = append(report.Collisions, Failure{Name: name, Err: fmt.Errorf("%s: %w", dest, ErrRenameCollision)})
			continue
		}

		if !opts.DryRun {
			if err := os.Rename(filepath.Join(opts.Dir, name), newPath); err != nil {
				l.Logf("[ERROR] failed to rename %s, %v", name, err)
				report.Failed = append(report.Failed, Failure{Name: name, Err: err})
				continue
			}
		}
		claimed[dest] = true
		if opts.DryRun {
			l.Logf("[INFO] would rename: %s → %s", name, dest)
		} else {
			l.Logf("[INFO] renamed: %s → %s", name, dest)
		}
		report.Renamed = append(report.Renamed, Rename{From: name, To: dest})
	}

	return report, nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
