package taskfile

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	tb "github.com/setanarut/tilebuilder"
	"github.com/setanarut/tilebuilder/utils"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("empty config mismatch (-want +got):\n%s", diff)
	}

	cfg, err = ParseConfig(`{"scope_path": "custom/scope.json"}`)
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultConfig()
	want.ScopePath = "custom/scope.json"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.ScopeFile(); got != filepath.Join("data", "custom", "scope.json") {
		t.Errorf("ScopeFile() = %q", got)
	}

	if _, err := ParseConfig("{not json"); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestScopeExpand(t *testing.T) {
	s := Scope{"side": "top", "n": "3"}
	got, err := s.Expand("grass_${side}_${n}.png")
	if err != nil {
		t.Fatal(err)
	}
	if got != "grass_top_3.png" {
		t.Errorf("Expand = %q", got)
	}

	id, err := s.Expand("${uuid}")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("${uuid} expanded to %q: %v", id, err)
	}

	if _, err := s.Expand("${side}/${nope}"); !errors.Is(err, ErrUnknownVariable) {
		t.Errorf("error = %v, want ErrUnknownVariable", err)
	}
	if got, err := s.Expand("$side and $"); err != nil || got != "$side and $" {
		t.Errorf("Expand without braces = %q, %v", got, err)
	}
}

func TestParseScope(t *testing.T) {
	scope, err := ParseScope([]byte(`{
		// comment
		"name": "grass",
		"frames": 4,
		"enabled": true,
	}`))
	if err != nil {
		t.Fatal(err)
	}
	want := Scope{"name": "grass", "frames": "4", "enabled": "true"}
	if diff := cmp.Diff(want, scope); diff != "" {
		t.Errorf("scope mismatch (-want +got):\n%s", diff)
	}

	scope, err = LoadScope(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil || len(scope) != 0 {
		t.Errorf("LoadScope(missing) = %v, %v", scope, err)
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestLoadAndBuild runs a task file end to end: discovery, scope expansion,
// building and saving.
func TestLoadAndBuild(t *testing.T) {
	root := t.TempDir()
	cfg := Config{DataDir: filepath.Join(root, "data"), TasksDir: "tilebuilder", ScopePath: "tilebuilder/scope.json"}

	sheet := image.NewNRGBA(image.Rect(0, 0, 2, 4))
	for y := range 4 {
		for x := range 2 {
			sheet.SetNRGBA(x, y, color.NRGBA{R: uint8(y * 60), A: 255})
		}
	}
	sheetPath := filepath.Join(root, "sheet.png")
	if err := utils.SaveImage(sheet, sheetPath); err != nil {
		t.Fatal(err)
	}

	writeFile(t, cfg.ScopeFile(), []byte(`{"out": "`+filepath.ToSlash(filepath.Join(root, "out"))+`"}`))
	writeFile(t, filepath.Join(cfg.TasksPath(), "b", "task.jsonc"), []byte(`[{
		"size": [2, 2], "output": "${out}/b.png",
		"operations": [{"type": "paste", "image": "`+filepath.ToSlash(sheetPath)+`",
			"source_position": [0, 2], "source_size": [2, 2], "target_position": [0, 0]}]
	}]`))
	writeFile(t, filepath.Join(cfg.TasksPath(), "a", "task.json"), []byte(`[{
		"size": [2, 2], "background": "#ffffff", "output": "${out}/a.png",
		"operations": [{"type": "offset", "offset": [1, 1]}]
	}]`))
	writeFile(t, filepath.Join(cfg.TasksPath(), "notes.txt"), []byte("ignored"))

	files, err := Discover(cfg.TasksPath(), cfg.ScopeFile())
	if err != nil {
		t.Fatal(err)
	}
	wantFiles := []string{
		filepath.Join(cfg.TasksPath(), "a", "task.json"),
		filepath.Join(cfg.TasksPath(), "b", "task.jsonc"),
	}
	if diff := cmp.Diff(wantFiles, files); diff != "" {
		t.Errorf("Discover mismatch (-want +got):\n%s", diff)
	}

	p := &tb.Pipeline{Runner: tb.NewTaskRunner(utils.NewFileLoader())}
	results, err := Build(context.Background(), cfg, p)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, r := range results {
		names = append(names, r.Task)
	}
	wantNames := []string{
		filepath.ToSlash(wantFiles[0]) + "[0]",
		filepath.ToSlash(wantFiles[1]) + "[0]",
	}
	if diff := cmp.Diff(wantNames, names); diff != "" {
		t.Errorf("built tasks mismatch (-want +got):\n%s", diff)
	}

	img, err := utils.ReadImage(filepath.Join(root, "out", "b.png"))
	if err != nil {
		t.Fatal(err)
	}
	got := utils.ToNRGBA(img)
	if diff := cmp.Diff(sheet.SubImage(image.Rect(0, 2, 2, 4)).(*image.NRGBA).Pix[:4], got.Pix[:4]); diff != "" {
		t.Errorf("pasted pixel mismatch (-want +got):\n%s", diff)
	}
	if c := got.NRGBAAt(0, 1); c.R != 180 {
		t.Errorf("pixel (0,1) = %v, want row 3 of the sheet", c)
	}
}

// TestBuildStopsAtBrokenFile checks that tasks of earlier files are built
// before a later file fails to decode.
func TestBuildStopsAtBrokenFile(t *testing.T) {
	root := t.TempDir()
	cfg := Config{DataDir: root, TasksDir: "tasks", ScopePath: "scope.json"}
	out := filepath.ToSlash(filepath.Join(root, "out"))

	writeFile(t, filepath.Join(cfg.TasksPath(), "a.json"), []byte(`[{
		"size": [2, 2], "output": "`+out+`/a.png", "operations": []
	}]`))
	writeFile(t, filepath.Join(cfg.TasksPath(), "b.json"), []byte(`[{
		"size": [2, 2], "output": "`+out+`/b.png",
		"operations": [{"type": "rotate"}]
	}]`))
	writeFile(t, filepath.Join(cfg.TasksPath(), "c.json"), []byte(`[{
		"size": [2, 2], "output": "`+out+`/c.png", "operations": []
	}]`))

	var progress []string
	p := &tb.Pipeline{Progress: func(r tb.Result) { progress = append(progress, r.Output) }}
	results, err := Build(context.Background(), cfg, p)
	if !errors.Is(err, tb.ErrUnknownOperationType) {
		t.Fatalf("error = %v, want ErrUnknownOperationType", err)
	}
	var taskErr *tb.TaskError
	if !errors.As(err, &taskErr) || taskErr.Task != filepath.ToSlash(filepath.Join(cfg.TasksPath(), "b.json"))+"[0]" {
		t.Errorf("error = %v, want *TaskError for b.json[0]", err)
	}
	if len(results) != 1 || results[0].State != tb.StateSucceeded {
		t.Errorf("results = %+v, want one succeeded task", results)
	}
	if diff := cmp.Diff([]string{out + "/a.png"}, progress); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(root, "out", "a.png")); err != nil {
		t.Errorf("a.png not written: %v", err)
	}
	for _, name := range []string{"b.png", "c.png"} {
		if _, err := os.Stat(filepath.Join(root, "out", name)); !os.IsNotExist(err) {
			t.Errorf("%s written despite the failure", name)
		}
	}
}

func TestBuildCancelled(t *testing.T) {
	root := t.TempDir()
	cfg := Config{DataDir: root, TasksDir: "tasks", ScopePath: "scope.json"}
	writeFile(t, filepath.Join(cfg.TasksPath(), "a.json"), []byte(`[{
		"size": [2, 2], "output": "`+filepath.ToSlash(filepath.Join(root, "a.png"))+`", "operations": []
	}]`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, cfg, &tb.Pipeline{}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(root, "a.png")); !os.IsNotExist(err) {
		t.Error("a.png written after cancellation")
	}
}
