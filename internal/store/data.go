package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ziadkadry99/pagebuild/internal/ctxlog"
)

// Data maps a data file's base name to its parsed JSON document. Numbers are
// kept as json.Number so they render exactly as written in the source.
type Data map[string]any

// LoadData parses every *.json file directly inside dir. A missing directory
// is treated as empty input. Any malformed document fails the whole load.
func LoadData(ctx context.Context, dir string) (Data, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := listFiles(dir, ".json")
	if err != nil {
		return nil, &LoadError{Kind: "data", Path: dir, Err: err}
	}

	data := make(Data, len(files))
	for _, f := range files {
		raw, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, &LoadError{Kind: "data", Path: f.Path, Err: err}
		}
		value, err := decodeJSON(raw)
		if err != nil {
			return nil, &LoadError{Kind: "data", Path: f.Path, Err: err}
		}
		data[f.Key] = value
		logger.Debug("loaded data file", "key", f.Key, "path", f.Path)
	}
	return data, nil
}

func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing JSON: unexpected content after top-level value")
	}
	return value, nil
}
