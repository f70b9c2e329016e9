package main

import (
	"fmt"
	"io"
	"os"

	log "github.com/go-pkgz/lgr"
	"github.com/umputun/go-flags"

	"github.com/ironsheep/stage-tools/internal/cli"
	"github.com/ironsheep/stage-tools/internal/rename"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type options struct {
	Dir    string `short:"d" long:"dir" env:"RENAME_DIR" default:"output_theatre" description:"directory with generated stalls images"`
	DryRun bool   `short:"n" long:"dry-run" env:"RENAME_DRY_RUN" description:"show what would be renamed"`

	Log cli.LogOptions `group:"log" namespace:"log" env-namespace:"RENAME_LOG"`

	Dbg     bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"print version information"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}
	if opts.Version {
		fmt.Println(cli.BuildInfo{App: "rename-stalls", Version: Version, BuildTime: BuildTime, GitCommit: GitCommit})
		return
	}
	closer := cli.SetupLogs(opts.Dbg, opts.Log)
	defer closer.Close()

	if err := run(opts, os.Stdout); err != nil {
		log.Printf("[ERROR] %v", err)
		closer.Close()
		os.Exit(1)
	}
}

// run renames and prints the per-file lines and the summary to w.
func run(opts options, w io.Writer) error {
	r := rename.Renamer{Log: log.Default()}
	report, err := r.Run(rename.Options{Dir: opts.Dir, DryRun: opts.DryRun})
	if err != nil {
		return err
	}
	if report.Skipped {
		fmt.Fprintln(w, report)
		return nil
	}

	for _, c := range report.Collisions {
		fmt.Fprintf(w, "Warning: %v, skipping %s\n", c.Err, c.Name)
	}
	for _, f := range report.Failed {
		fmt.Fprintf(w, "Error renaming %s: %v\n", f.Name, f.Err)
	}
	verb := "Renamed"
	if report.DryRun {
		verb = "Would rename"
	}
	for _, rn := range report.Renamed {
		fmt.Fprintf(w, "%s: %s → %s\n", verb, rn.From, rn.To)
	}
	fmt.Fprintf(w, "\n%s\n", report)
	return nil
}
