package dataaccess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Jacobbrewer1/supportbot/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/supportbot/pkg/entities"
)

const fileBackendName = "file"

// FileBackend stores the document as a pretty-printed JSON file.
type FileBackend struct {
	// path is the location of the document.
	path string
}

// NewFileBackend creates a backend for the document at path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{
		path: path,
	}
}

func (b *FileBackend) Name() string {
	return fileBackendName
}

func (b *FileBackend) Load(_ context.Context) (doc entities.Document, err error) {
	done := monitoring.Observe(fileBackendName, "load")
	defer func() { done(err) }()

	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(entities.Document), nil
	} else if err != nil {
		return nil, fmt.Errorf("error reading document: %w", err)
	}

	doc = make(entities.Document)
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error decoding document %s: %w", b.path, err)
	}
	doc.Normalize()
	return doc, nil
}

// Save writes the document to a temporary file in the same directory and renames it over the old one, so an
// interrupted write leaves the previous document intact.
func (b *FileBackend) Save(_ context.Context, doc entities.Document) (err error) {
	done := monitoring.Observe(fileBackendName, "save")
	defer func() { done(err) }()

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("error encoding document: %w", err)
	}

	dir := filepath.Dir(b.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temporary document: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("error writing temporary document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("error syncing temporary document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("error closing temporary document: %w", err)
	}

	if err := os.Rename(tmpPath, b.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("error renaming document into place: %w", err)
	}
	return nil
}

// Ping checks that the directory holding the document exists.
func (b *FileBackend) Ping(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(b.path))
	if err != nil {
		return fmt.Errorf("error checking document directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(b.path))
	}
	return nil
}

func (b *FileBackend) Close(_ context.Context) error {
	return nil
}
