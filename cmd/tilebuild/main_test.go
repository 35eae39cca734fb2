package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	tb "github.com/setanarut/tilebuilder"
	"github.com/setanarut/tilebuilder/utils"
)

// set assigns a flag value for the duration of the test.
func set[T any](t *testing.T, p *T, v T) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}

func writeTaskFile(t *testing.T, path, output string, ops string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	data := `[{"size": [4, 4], "background": "red", "output": "` + filepath.ToSlash(output) + `", "operations": [` + ops + `]}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestMainBuild(t *testing.T) {
	root := t.TempDir()
	set(t, dataDir, root)
	set(t, tasksDir, "textures")
	outA := filepath.Join(root, "out", "a.png")
	outB := filepath.Join(root, "out", "b.png")
	writeTaskFile(t, filepath.Join(root, "textures", "a.json"), outA, `{"type": "set_tiles", "tiles": [2, 2]}`)
	writeTaskFile(t, filepath.Join(root, "textures", "b.jsonc"), outB, `{"type": "scale", "scale": [0.5, 0.5]}`)

	var stdout bytes.Buffer
	if err := mainErr(context.Background(), &stdout, nil); err != nil {
		t.Fatal(err)
	}
	want := "Creating image: " + filepath.ToSlash(outA) + "\n" +
		"Creating image: " + filepath.ToSlash(outB) + "\n"
	if diff := cmp.Diff(want, stdout.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	img, err := utils.ReadImage(outB)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Size(); got != image.Pt(2, 2) {
		t.Errorf("b.png size = %v, want 2x2", got)
	}
}

// TestMainConfigArgument checks that the JSON argument selects the task
// directory and that -scope still overrides it.
func TestMainConfigArgument(t *testing.T) {
	root := t.TempDir()
	set(t, dataDir, root)
	set(t, scopePath, "vars.json")
	if err := os.WriteFile(filepath.Join(root, "vars.json"), []byte(`{"name": "grass"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	writeTaskFile(t, filepath.Join(root, "other", "t.json"), filepath.Join(root, "${name}.png"), "")
	// Ignored: not below the configured task directory.
	writeTaskFile(t, filepath.Join(root, "tilebuilder", "t.json"), filepath.Join(root, "default.png"), "")

	var stdout bytes.Buffer
	if err := mainErr(context.Background(), &stdout, []string{`{"tasks_path": "other", "scope_path": "missing.json"}`}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "grass.png")); err != nil {
		t.Errorf("grass.png not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "default.png")); !os.IsNotExist(err) {
		t.Error("task outside the configured directory was built")
	}
}

func TestMainStopsAtFailure(t *testing.T) {
	root := t.TempDir()
	set(t, dataDir, root)
	set(t, tasksDir, "tasks")
	outA := filepath.Join(root, "a.png")
	writeTaskFile(t, filepath.Join(root, "tasks", "a.json"), outA, "")
	writeTaskFile(t, filepath.Join(root, "tasks", "b.json"), filepath.Join(root, "b.png"), `{"type": "scale", "scale": [0.3, 1]}`)
	writeTaskFile(t, filepath.Join(root, "tasks", "c.json"), filepath.Join(root, "c.png"), "")

	var stdout bytes.Buffer
	err := mainErr(context.Background(), &stdout, nil)
	if !errors.Is(err, tb.ErrNonIntegerScaledSize) {
		t.Fatalf("error = %v, want ErrNonIntegerScaledSize", err)
	}
	if got, want := stdout.String(), "Creating image: "+filepath.ToSlash(outA)+"\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(root, "c.png")); !os.IsNotExist(err) {
		t.Error("c.png written after the failure")
	}
}

func TestMainArguments(t *testing.T) {
	set(t, dataDir, t.TempDir())
	if err := mainErr(context.Background(), new(bytes.Buffer), []string{"{}", "{}"}); err == nil {
		t.Error("expected error for two arguments")
	}
	if err := mainErr(context.Background(), new(bytes.Buffer), []string{"{not json"}); err == nil {
		t.Error("expected error for an invalid config argument")
	}
}

func TestMainInspect(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 4))
	for y := range 2 {
		for x := range 2 {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "frames.png")
	if err := utils.SaveImage(img, path); err != nil {
		t.Fatal(err)
	}
	set(t, inspect, path)
	set(t, tiles, "1x2")
	set(t, paletteK, 0)

	var stdout bytes.Buffer
	if err := mainErr(context.Background(), &stdout, nil); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("report has %d lines, want 2:\n%s", len(lines), stdout.String())
	}
	if !strings.HasPrefix(lines[0], "tile 0 (0,0)-(2,2) visible=4 ") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "tile 1 (0,2)-(2,4) visible=0 ") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestMainInspectInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	if err := utils.SaveImage(image.NewNRGBA(image.Rect(0, 0, 4, 4)), path); err != nil {
		t.Fatal(err)
	}
	set(t, inspect, path)
	for _, tc := range []struct{ tiles, method string }{
		{"2by2", "dominantcolor"},
		{"3x1", "dominantcolor"},
		{"2x2", "median"},
	} {
		set(t, tiles, tc.tiles)
		set(t, method, tc.method)
		if err := mainErr(context.Background(), new(bytes.Buffer), nil); err == nil {
			t.Errorf("-tiles %s -method %s: expected error", tc.tiles, tc.method)
		}
	}
}
