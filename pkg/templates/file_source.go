package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrSourceRead is returned when template files exist but cannot be read.
var ErrSourceRead = errors.New("failed to read template from source")

// FileSource loads templates from a directory on disk. For a template id
// it expects up to three files: <id>.html, <id>.txt and <id>.json metadata
// carrying the name, subject and required variable list. Any of the three
// may be absent; a template with no files at all is an unknown ID.
type FileSource struct {
	dir string
}

// NewFileSource creates a template source reading from dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// fileMetadata is the shape of the optional <id>.json sidecar.
type fileMetadata struct {
	Name      string   `json:"name"`
	Subject   string   `json:"subject"`
	Variables []string `json:"variables"`
}

// Lookup resolves a template ID against the directory. It returns
// (nil, nil) when no file for the ID exists.
func (s *FileSource) Lookup(_ context.Context, id string) (*Template, error) {
	htmlPath := filepath.Join(s.dir, id+".html")
	textPath := filepath.Join(s.dir, id+".txt")
	metaPath := filepath.Join(s.dir, id+".json")

	tpl := &Template{ID: id, Name: id}
	found := false

	if raw, err := readIfExists(metaPath); err != nil {
		return nil, err
	} else if raw != nil {
		var meta fileMetadata
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSourceRead, metaPath, err)
		}
		if meta.Name != "" {
			tpl.Name = meta.Name
		}
		tpl.Subject = meta.Subject
		tpl.RequiredVariables = meta.Variables
		found = true
	}

	if raw, err := readIfExists(htmlPath); err != nil {
		return nil, err
	} else if raw != nil {
		tpl.HTMLTemplate = string(raw)
		found = true
	}

	if raw, err := readIfExists(textPath); err != nil {
		return nil, err
	} else if raw != nil {
		tpl.TextTemplate = string(raw)
		found = true
	}

	if !found {
		return nil, nil
	}
	return tpl, nil
}

func readIfExists(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceRead, path, err)
	}
	return raw, nil
}
