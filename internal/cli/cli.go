// Package cli holds the bits every command shares: log setup with optional
// file rotation and the version banner.
package cli

import (
	"fmt"
	"io"
	"os"

	log "github.com/go-pkgz/lgr"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions is the "log" flag group of each command.
type LogOptions struct {
	File       string `long:"file" env:"FILE" description:"log file, stdout if empty"`
	MaxSize    int    `long:"max-size" env:"MAX_SIZE" default:"10" description:"max log file size, MB"`
	MaxBackups int    `long:"max-backups" env:"MAX_BACKUPS" default:"3" description:"rotated log files to keep"`
	MaxAge     int    `long:"max-age" env:"MAX_AGE" default:"30" description:"days to keep rotated log files"`
	Compress   bool   `long:"compress" env:"COMPRESS" description:"gzip rotated log files"`
}

// BuildInfo is set by ldflags in each command.
type BuildInfo struct {
	App       string
	Version   string
	BuildTime string
	GitCommit string
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s %s\n  Build time: %s\n  Git commit: %s", b.App, b.Version, b.BuildTime, b.GitCommit)
}

// SetupLogs configures the global lgr logger. The returned closer releases
// the log file, it is a no-op without one.
func SetupLogs(dbg bool, lo LogOptions) io.Closer {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if lo.File != "" {
		lj := &lumberjack.Logger{
			Filename:   lo.File,
			MaxSize:    lo.MaxSize,
			MaxBackups: lo.MaxBackups,
			MaxAge:     lo.MaxAge,
			Compress:   lo.Compress,
		}
		out, closer = lj, lj
	}

	if dbg {
		log.Setup(log.Out(out), log.Debug, log.Msec, log.CallerFunc, log.CallerPkg, log.CallerFile)
		return closer
	}
	log.Setup(log.Out(out), log.Msec)
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
