// Command shapegen generates type definitions from the serializer
// declarations of a shapegen.yml project.
//
//	shapegen -config shapegen.yml
//	shapegen -watch
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	goversion "github.com/caarlos0/go-version"
	"github.com/davecgh/go-spew/spew"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/shapegen/compiler"
	"github.com/syssam/shapegen/compiler/gen"
	"github.com/syssam/shapegen/privacy"
)

var (
	version   = "0.0.1"
	commit    = ""
	treeState = ""
	date      = ""
	builtBy   = ""

	config      = flag.String("config", compiler.DefaultProjectFile, "Path of the project file.")
	force       = flag.Bool("force", false, "Remove the output directories before writing.")
	watch       = flag.Bool("watch", false, "Regenerate whenever the project file or a manifest changes.")
	exclude     = flag.String("exclude", "", "Regular expression of declared type names to skip.")
	debug       = flag.Bool("debug", false, "Enable debug logging and dump the pass results.")
	logFile     = flag.String("log-file", "", "Path to a file where logs should be written. If empty, logs go to stderr.")
	showVersion = flag.Bool("version", false, "Print the version and exit.")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(buildVersion(version, commit, date, builtBy, treeState).String())
		return
	}
	if disabled(os.Getenv("SHAPEGEN_DISABLE")) {
		return
	}

	var logWriter io.Writer = os.Stderr
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			slog.Error("Failed to open log file", "file", *logFile, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		logWriter = f
	}
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	opts := []compiler.RunnerOption{compiler.WithLogger(logger)}
	if *exclude != "" {
		re, err := regexp.Compile(*exclude)
		if err != nil {
			logger.Error("Invalid exclude pattern", "pattern", *exclude, "error", err)
			os.Exit(2)
		}
		opts = append(opts, compiler.WithRules(privacy.DenyMatchRule(re)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runner := compiler.NewRunner(*config, opts...)

	if *watch {
		if err := runner.Watch(ctx, *force, dump); err != nil {
			logger.Error("Watch failed", "error", err)
			os.Exit(1)
		}
		return
	}
	results, err := runner.Run(ctx, *force)
	dump(results, err)
	if err != nil {
		logger.Error("Generation failed", "config", *config, "error", err)
		os.Exit(1)
	}
	for _, res := range results {
		logger.Info("Writer finished", "writer", res.Writer, "dir", res.Dir,
			"written", len(res.Written), "skipped", len(res.Skipped), "removed", len(res.Removed))
	}
}

// dump prints the pass results in debug mode.
func dump(results []*gen.Result, _ error) {
	if *debug && len(results) > 0 {
		spew.Fdump(os.Stderr, results)
	}
}

func disabled(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func buildVersion(version, commit, date, builtBy, treeState string) goversion.Info {
	return goversion.GetVersionInfo(
		goversion.WithAppDetails("shapegen", "Generate type definitions from serializer declarations.", "https://github.com/syssam/shapegen"),
		func(i *goversion.Info) {
			if commit != "" {
				i.GitCommit = commit
			}
			if version != "" {
				i.GitVersion = version
			}
			if treeState != "" {
				i.GitTreeState = treeState
			}
			if date != "" {
				i.BuildDate = date
			}
			if builtBy != "" {
				i.BuiltBy = builtBy
			}
		},
	)
}
