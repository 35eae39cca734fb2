package taskfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"

	"github.com/tailscale/hujson"

	tb "github.com/setanarut/tilebuilder"
	"github.com/setanarut/tilebuilder/utils"
)

type taskDesc struct {
	Size       []int             `json:"size"`
	Background string            `json:"background"`
	Output     string            `json:"output"`
	Operations []json.RawMessage `json:"operations"`
}

type opDesc struct {
	Type           string    `json:"type"`
	Image          string    `json:"image"`
	SourcePosition []int     `json:"source_position"`
	SourceSize     []int     `json:"source_size"`
	TargetPosition []int     `json:"target_position"`
	Tile           *int      `json:"tile"`
	Offset         []int     `json:"offset"`
	Tiles          []int     `json:"tiles"`
	Scale          []float64 `json:"scale"`
}

// Decode parses a task file. name identifies the file; each task is named
// name[i]. A single task object is accepted as well as an array.
func Decode(data []byte, name string, scope Scope) ([]tb.BuildTask, error) {
	data, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	var descs []taskDesc
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var d taskDesc
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		descs = []taskDesc{d}
	} else if err := json.Unmarshal(data, &descs); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	tasks := make([]tb.BuildTask, 0, len(descs))
	for i, d := range descs {
		taskName := fmt.Sprintf("%s[%d]", name, i)
		task, err := d.build(taskName, scope)
		if err != nil {
			return nil, &tb.TaskError{Task: taskName, Err: err}
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (d taskDesc) build(name string, scope Scope) (tb.BuildTask, error) {
	task := tb.BuildTask{Name: name}
	size, err := point("size", d.Size)
	if err != nil {
		return task, err
	}
	task.Size = size

	bg := d.Background
	if bg == "" {
		bg = "#00000000"
	}
	if bg, err = scope.Expand(bg); err != nil {
		return task, err
	}
	if task.Background, err = utils.ParseColor(bg); err != nil {
		return task, err
	}

	if d.Output == "" {
		return task, fmt.Errorf("missing output")
	}
	if task.Output, err = scope.Expand(d.Output); err != nil {
		return task, err
	}

	for i, raw := range d.Operations {
		op, kind, err := decodeOperation(raw, scope)
		if err != nil {
			return task, &tb.OperationError{Index: i, Kind: kind, Err: err}
		}
		task.Operations = append(task.Operations, op)
	}
	return task, nil
}

func decodeOperation(raw json.RawMessage, scope Scope) (tb.Operation, string, error) {
	var d opDesc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, "", err
	}
	tile := tb.AllTiles
	if d.Tile != nil {
		tile = *d.Tile
	}

	switch d.Type {
	case tb.KindPaste:
		src, err := scope.Expand(d.Image)
		if err != nil {
			return nil, d.Type, err
		}
		if src == "" {
			return nil, d.Type, fmt.Errorf("missing image")
		}
		pos, err := point("source_position", d.SourcePosition)
		if err != nil {
			return nil, d.Type, err
		}
		size, err := point("source_size", d.SourceSize)
		if err != nil {
			return nil, d.Type, err
		}
		target, err := point("target_position", d.TargetPosition)
		if err != nil {
			return nil, d.Type, err
		}
		return tb.Paste{
			Source:     src,
			SourceRect: image.Rectangle{Min: pos, Max: pos.Add(size)},
			Target:     target,
			Tile:       tile,
		}, d.Type, nil
	case tb.KindOffset:
		off, err := point("offset", d.Offset)
		if err != nil {
			return nil, d.Type, err
		}
		return tb.Offset{DX: off.X, DY: off.Y, Tile: tile}, d.Type, nil
	case tb.KindSetTiles:
		n, err := point("tiles", d.Tiles)
		if err != nil {
			return nil, d.Type, err
		}
		return tb.SetTiles{Cols: n.X, Rows: n.Y}, d.Type, nil
	case tb.KindScale:
		if len(d.Scale) != 2 {
			return nil, d.Type, fmt.Errorf("scale must have 2 values, got %d", len(d.Scale))
		}
		return tb.Scale{SX: d.Scale[0], SY: d.Scale[1]}, d.Type, nil
	}
	return nil, d.Type, fmt.Errorf("%w: %q", tb.ErrUnknownOperationType, d.Type)
}

func point(field string, v []int) (image.Point, error) {
	if len(v) != 2 {
		return image.Point{}, fmt.Errorf("%s must have 2 values, got %d", field, len(v))
	}
	return image.Pt(v[0], v[1]), nil
}
