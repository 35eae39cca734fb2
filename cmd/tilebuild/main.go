// Command tilebuild builds textures from task files.
//
//	tilebuild [flags] [config-json]
//
// The optional argument is a JSON object overriding the default locations,
// e.g. '{"scope_path": "tilebuilder/scope.json"}'. The run stops at the first
// failing task and exits with status 1.
//
// With -inspect, tilebuild prints a per-tile report of an existing image
// instead of building.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/term"

	tb "github.com/setanarut/tilebuilder"
	"github.com/setanarut/tilebuilder/taskfile"
	"github.com/setanarut/tilebuilder/utils"
)

var (
	verbose   = flag.Bool("v", false, "log every operation")
	workers   = flag.Int("workers", 1, "number of tasks to build at the same time")
	dataDir   = flag.String("data", "", "data directory (overrides the config)")
	tasksDir  = flag.String("tasks", "", "task directory, relative to the data directory")
	scopePath = flag.String("scope", "", "scope file, relative to the data directory")
	inspect   = flag.String("inspect", "", "print a tile report of this image and exit")
	tiles     = flag.String("tiles", "1x1", "tile grid for -inspect, as COLSxROWS")
	paletteK  = flag.Int("k", 3, "palette size per tile for -inspect")
	method    = flag.String("method", "dominantcolor", "palette method for -inspect (dominantcolor, kmeans)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: tilebuild [flags] [config-json]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	tb.SetLogger(logger.With("run", uuid.NewString()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := mainErr(ctx, os.Stdout, flag.Args())
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func mainErr(ctx context.Context, stdout io.Writer, args []string) error {
	if *inspect != "" {
		return inspectImage(stdout, *inspect)
	}
	if len(args) > 1 {
		return errors.New("too many arguments")
	}
	var arg string
	if len(args) == 1 {
		arg = args[0]
	}
	cfg, err := taskfile.ParseConfig(arg)
	if err != nil {
		return err
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *tasksDir != "" {
		cfg.TasksDir = *tasksDir
	}
	if *scopePath != "" {
		cfg.ScopePath = *scopePath
	}

	p := &tb.Pipeline{
		Runner:   tb.NewTaskRunner(utils.NewFileLoader()),
		Workers:  *workers,
		Progress: func(r tb.Result) {
			if r.State == tb.StateSucceeded {
				fmt.Fprintf(stdout, "Creating image: %s\n", r.Output)
			}
		},
	}
	_, err = taskfile.Build(ctx, cfg, p)
	return err
}

func inspectImage(w io.Writer, path string) error {
	var cols, rows int
	if _, err := fmt.Sscanf(*tiles, "%dx%d", &cols, &rows); err != nil {
		return fmt.Errorf("invalid -tiles %q: %w", *tiles, err)
	}
	m, err := utils.ParsePaletteMethod(*method)
	if err != nil {
		return err
	}
	img, err := utils.ReadImage(path)
	if err != nil {
		return err
	}
	reports, err := utils.InspectTiles(img, cols, rows, *paletteK, m)
	if err != nil {
		return err
	}
	return utils.WriteReport(w, reports)
}

// printError writes err in red when f is a terminal.
func printError(f *os.File, err error) {
	color := term.IsTerminal(int(f.Fd()))
	for _, line := range strings.Split("tilebuild: "+err.Error(), "\n") {
		if color {
			fmt.Fprintf(f, "\033[91m%s\033[00m\n", line)
		} else {
			fmt.Fprintln(f, line)
		}
	}
}
