package taskfile

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	tb "github.com/setanarut/tilebuilder"
)

// Discover lists the task files below dir in lexical order: every .json or
// .jsonc file other than skip.
func Discover(dir, skip string) ([]string, error) {
	skipAbs, _ := filepath.Abs(skip)
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".jsonc":
		default:
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == skipAbs {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// LoadFile reads and decodes one task file.
func LoadFile(path string, scope Scope) ([]tb.BuildTask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, filepath.ToSlash(path), scope)
}

// Build runs every task file located by cfg through p, one file at a time.
// A file is decoded only after the tasks of the previous files were built, so
// a broken file stops the run without undoing earlier outputs.
//
// The results of every started task are returned along with the first error.
func Build(ctx context.Context, cfg Config, p *tb.Pipeline) ([]tb.Result, error) {
	scope, err := LoadScope(cfg.ScopeFile())
	if err != nil {
		return nil, err
	}
	files, err := Discover(cfg.TasksPath(), cfg.ScopeFile())
	if err != nil {
		return nil, err
	}
	var results []tb.Result
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		tasks, err := LoadFile(f, scope)
		if err != nil {
			return results, err
		}
		tb.Logger().Debug("loaded task file", "file", f, "tasks", len(tasks))
		rs, err := p.Run(ctx, tasks)
		results = append(results, rs...)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
