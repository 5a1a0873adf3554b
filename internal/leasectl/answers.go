package leasectl

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/lease"
	"gopkg.in/yaml.v3"
)

// loadAnswers reads an answers document. Files ending in .yaml or .yml are
// YAML, anything else is JSON. "-" reads JSON from stdin.
func (a *App) loadAnswers(path string) (lease.Answers, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse answers %s: %w", path, err)
	}

	out := lease.Answers{}
	for k, v := range raw {
		out[k] = plain(v)
	}
	return out, nil
}

// plain converts decoded YAML values to the shapes JSON decoding produces.
func plain(v any) any {
	switch value := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(value))
		for k, item := range value {
			m[k] = plain(item)
		}
		return m
	case []any:
		list := make([]any, len(value))
		for i, item := range value {
			list[i] = plain(item)
		}
		return list
	case time.Time:
		if value.Hour() == 0 && value.Minute() == 0 && value.Second() == 0 {
			return value.Format("2006-01-02")
		}
		return value.Format(time.RFC3339)
	default:
		return v
	}
}
