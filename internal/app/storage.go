package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Persister loads and saves the full planner document. The store calls
// Save after every successful mutation; implementations must never partially
// apply a write.
type Persister interface {
	Load() (Data, error)
	Save(Data) error
}

// File suffixes used by FilePersister.
const (
	BackupSuffix    = ".backup"
	TmpSuffix       = ".tmp.json"
	FilePermissions = 0644
)

// FilePersister keeps the whole document in one pretty-printed JSON file,
// written atomically: tmp file first, previous file rotated to a backup,
// then rename over the original.
type FilePersister struct {
	Path string
}

// NewFilePersister returns a persister backed by the given file path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{Path: path}
}

// Load reads the document from disk. A missing file yields an empty
// document; missing or null top-level arrays default to empty rather than
// failing the load.
func (p *FilePersister) Load() (Data, error) {
	raw, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Data{}, nil
		}
		return Data{}, fmt.Errorf("read %s: %w", p.Path, err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, fmt.Errorf("parse %s: %w", p.Path, err)
	}
	return normalized(data), nil
}

// Save writes the document atomically, keeping the previous version as a
// backup next to the file.
func (p *FilePersister) Save(data Data) error {
	raw, err := json.MarshalIndent(normalized(data), "", "  ")
	if err != nil {
		return err
	}

	tmpFile := p.Path + TmpSuffix
	if err := os.WriteFile(tmpFile, raw, FilePermissions); err != nil {
		return err
	}

	// Rotate the current file to a backup; a failure here is not fatal
	// since the tmp file already holds the new state.
	if _, err := os.Stat(p.Path); err == nil {
		_ = os.Rename(p.Path, p.Path+BackupSuffix)
	}

	return os.Rename(tmpFile, p.Path)
}

// normalized replaces nil arrays with empty ones so the serialized document
// always carries all four fields.
func normalized(d Data) Data {
	if d.Workshops == nil {
		d.Workshops = []Workshop{}
	}
	if d.Educators == nil {
		d.Educators = []Educator{}
	}
	if d.Classes == nil {
		d.Classes = []Class{}
	}
	if d.Sessions == nil {
		d.Sessions = []Session{}
	}
	return d
}

// ParseImport validates an imported document: it must be a JSON object
// carrying all four collection fields, each an array. Anything else is a
// structural error and no state is touched.
func ParseImport(raw []byte) (Data, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Data{}, &ImportError{Reason: "not a JSON object"}
	}
	for _, field := range []string{"workshops", "educators", "classes", "sessions"} {
		val, ok := doc[field]
		if !ok {
			return Data{}, &ImportError{Reason: "missing array " + field}
		}
		trimmed := bytes.TrimSpace(val)
		if len(trimmed) == 0 || trimmed[0] != '[' {
			return Data{}, &ImportError{Reason: field + " is not an array"}
		}
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, &ImportError{Reason: err.Error()}
	}
	return normalized(data), nil
}

// memPersister is a Persister for tests: it keeps the last saved document
// in memory and can be told to fail.
type memPersister struct {
	data    Data
	saves   int
	failing bool
}

func (m *memPersister) Load() (Data, error) { return m.data, nil }

func (m *memPersister) Save(d Data) error {
	if m.failing {
		return fmt.Errorf("persister unavailable")
	}
	m.data = d
	m.saves++
	return nil
}
