package taskfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/tailscale/hujson"
)

var ErrUnknownVariable = errors.New("unknown scope variable")

// Scope holds the variables available to task files. "uuid" is built in and
// expands to a new random UUID every time it is referenced.
type Scope map[string]string

var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Expand replaces every ${name} in s.
func (s Scope) Expand(str string) (string, error) {
	var missing []string
	out := varPattern.ReplaceAllStringFunc(str, func(m string) string {
		name := m[2 : len(m)-1]
		if v, ok := s[name]; ok {
			return v
		}
		if name == "uuid" {
			return uuid.NewString()
		}
		missing = append(missing, name)
		return m
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s in %q", ErrUnknownVariable, strings.Join(missing, ", "), str)
	}
	return out, nil
}

// LoadScope reads a JSONC object of variables. Non-string values are kept in
// their JSON text form. A missing file yields an empty scope.
func LoadScope(path string) (Scope, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Scope{}, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseScope(data)
}

func ParseScope(data []byte) (Scope, error) {
	data, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("scope: %w", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("scope: %w", err)
	}
	scope := make(Scope, len(raw))
	for k, v := range raw {
		var str string
		if err := json.Unmarshal(v, &str); err == nil {
			scope[k] = str
			continue
		}
		scope[k] = string(bytes.TrimSpace(v))
	}
	return scope, nil
}
