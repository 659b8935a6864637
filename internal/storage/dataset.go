/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"statsheet/internal/data"
)

const (
	ManifestFileName = "dataset.json"
	BackupsDirName   = "backups"
	AutosaveDirName  = ".autosave"

	// CaseDBFileName is the default on-disk case database inside a dataset
	// directory for datasets too large to keep in memory.
	CaseDBFileName = "cases.sqlite"

	maxBackups   = 10
	maxAutosaves = 5
)

// Standard subfolders of a dataset directory.
var standardSubDirs = []string{
	BackupsDirName,
	"exports",
}

// Layout persists the user's grid geometry: explicit column widths keyed by
// variable name and the row height, so a reopened dataset looks the same.
type Layout struct {
	ColumnWidths map[string]int `json:"columnWidths,omitempty"`
	RowHeight    int            `json:"rowHeight,omitempty"`
}

// Dataset is the manifest content of a dataset directory: the variable
// dictionary, a reference to the case file, and display preferences. Case
// values live either in memory (small datasets, CaseFile empty) or in the
// referenced sqlite case database.
type Dataset struct {
	Name      string          `json:"name"`
	Notes     string          `json:"notes,omitempty"`
	Variables []data.Variable `json:"variables"`
	CaseFile  string          `json:"caseFile,omitempty"`
	Layout    Layout          `json:"layout,omitempty"`
}

// DatasetHandle keeps track of the dataset state loaded/saved from disk.
// Root is the dataset directory containing dataset.json and subfolders.
type DatasetHandle struct {
	Root         string
	ManifestPath string
	Dataset      Dataset
}

// InitDataset creates a new dataset directory at root (creating it if it
// doesn't exist), scaffolds the standard subfolders, and writes the manifest
// transactionally.
func InitDataset(root string, ds Dataset) (*DatasetHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create dataset root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	h := &DatasetHandle{
		Root:         root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		Dataset:      ds,
	}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open loads an existing dataset from the given root directory, validating
// the manifest against the embedded schema. If the current manifest cannot
// be read, parsed or validated, it falls back to the latest backup.
func Open(root string) (*DatasetHandle, error) {
	mpath := filepath.Join(root, ManifestFileName)
	b, err := os.ReadFile(mpath)
	if err != nil {
		ds, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
		}
		return &DatasetHandle{Root: root, ManifestPath: mpath, Dataset: *ds}, nil
	}
	ds, perr := parseManifest(b)
	if perr != nil {
		bds, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("parse manifest: %w; backup attempt: %v", perr, berr)
		}
		return &DatasetHandle{Root: root, ManifestPath: mpath, Dataset: *bds}, nil
	}
	return &DatasetHandle{Root: root, ManifestPath: mpath, Dataset: *ds}, nil
}

func parseManifest(b []byte) (*Dataset, error) {
	if err := ValidateManifest(b); err != nil {
		return nil, err
	}
	var ds Dataset
	if err := json.Unmarshal(b, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Save writes the manifest to disk with transactional semantics and a
// timestamped backup of the previous manifest (if present). Backups rotate;
// only the newest maxBackups are kept.
func Save(h *DatasetHandle) error {
	if h == nil {
		return errors.New("nil DatasetHandle")
	}
	if h.Root == "" || h.ManifestPath == "" {
		return errors.New("invalid DatasetHandle: missing paths")
	}
	buf, err := json.MarshalIndent(h.Dataset, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	buf = append(buf, '\n')

	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	// If a current manifest exists, copy it to a timestamped backup before
	// replacing it.
	if _, statErr := os.Stat(h.ManifestPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405.000000000")
		bname := fmt.Sprintf("%s.%s.bak", ManifestFileName, stamp)
		if cerr := copyFile(h.ManifestPath, filepath.Join(bdir, bname)); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
		if perr := pruneOldest(bdir, ManifestFileName+".", ".bak", maxBackups); perr != nil {
			return fmt.Errorf("rotate backups: %w", perr)
		}
	}

	// Transactional write: to temp file in same directory, then rename over
	// target.
	dir := filepath.Dir(h.ManifestPath)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", ManifestFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, buf); werr != nil {
		return fmt.Errorf("write temp manifest: %w", werr)
	}
	// On Windows, replace by removing destination first if needed.
	if _, err := os.Stat(h.ManifestPath); err == nil {
		_ = os.Remove(h.ManifestPath)
	}
	if rerr := os.Rename(temp, h.ManifestPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace manifest: %w", rerr)
	}
	return nil
}

// SaveAs writes the manifest to a new root folder, scaffolding structure if
// needed, and updates the handle.
func SaveAs(h *DatasetHandle, newRoot string) error {
	if h == nil {
		return errors.New("nil DatasetHandle")
	}
	if newRoot == "" {
		return errors.New("new root is empty")
	}
	if err := os.MkdirAll(newRoot, 0o755); err != nil {
		return fmt.Errorf("create new root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(newRoot, d), 0o755); err != nil {
			return fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	h.Root = newRoot
	h.ManifestPath = filepath.Join(newRoot, ManifestFileName)
	return Save(h)
}

// Dictionary rebuilds the variable dictionary from the manifest.
func (h *DatasetHandle) Dictionary() (*data.Dictionary, error) {
	return data.NewDictionary(h.Dataset.Variables...)
}

// SetDictionary replaces the manifest's variable list from a live
// dictionary, typically right before Save.
func (h *DatasetHandle) SetDictionary(d *data.Dictionary) {
	h.Dataset.Variables = d.Vars()
}

// CaseDBPath resolves the dataset's case database path, or "" when the
// dataset is in-memory.
func (h *DatasetHandle) CaseDBPath() string {
	if h.Dataset.CaseFile == "" {
		return ""
	}
	if filepath.IsAbs(h.Dataset.CaseFile) {
		return h.Dataset.CaseFile
	}
	return filepath.Join(h.Root, h.Dataset.CaseFile)
}

// AutosaveSnapshot writes the current manifest state to the autosave
// directory without touching dataset.json. Crash recovery offers the newest
// snapshot when it is younger than the manifest. Old snapshots rotate away.
func AutosaveSnapshot(h *DatasetHandle) (string, error) {
	if h == nil {
		return "", errors.New("nil DatasetHandle")
	}
	adir := filepath.Join(h.Root, AutosaveDirName)
	if err := os.MkdirAll(adir, 0o755); err != nil {
		return "", fmt.Errorf("ensure autosave dir: %w", err)
	}
	buf, err := json.MarshalIndent(h.Dataset, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal autosave: %w", err)
	}
	stamp := time.Now().Format("20060102-150405.000000000")
	path := filepath.Join(adir, fmt.Sprintf("%s.%s.autosave", ManifestFileName, stamp))
	if err := writeFileSync(path, append(buf, '\n')); err != nil {
		return "", fmt.Errorf("write autosave: %w", err)
	}
	if err := pruneOldest(adir, ManifestFileName+".", ".autosave", maxAutosaves); err != nil {
		return path, fmt.Errorf("rotate autosaves: %w", err)
	}
	return path, nil
}

// LatestAutosave returns the newest autosave snapshot for a dataset root, or
// ("" , nil) when none exists.
func LatestAutosave(root string) (string, *Dataset, error) {
	adir := filepath.Join(root, AutosaveDirName)
	names, err := matching(adir, ManifestFileName+".", ".autosave")
	if err != nil || len(names) == 0 {
		return "", nil, err
	}
	latest := filepath.Join(adir, names[len(names)-1])
	b, err := os.ReadFile(latest)
	if err != nil {
		return "", nil, fmt.Errorf("read autosave: %w", err)
	}
	ds, err := parseManifest(b)
	if err != nil {
		return "", nil, fmt.Errorf("parse autosave: %w", err)
	}
	return latest, ds, nil
}

// writeFileSync writes data to a file and ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	if err := df.Sync(); err != nil {
		return err
	}
	return nil
}

// matching lists files in dir with the given prefix and suffix, sorted
// ascending; timestamps in the names yield chronological order.
func matching(dir, prefix, suffix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// pruneOldest deletes matching files beyond the newest keep.
func pruneOldest(dir, prefix, suffix string, keep int) error {
	names, err := matching(dir, prefix, suffix)
	if err != nil {
		return err
	}
	for len(names) > keep {
		if err := os.Remove(filepath.Join(dir, names[0])); err != nil {
			return err
		}
		names = names[1:]
	}
	return nil
}

// openFromLatestBackup tries to open the latest timestamped backup.
func openFromLatestBackup(root string) (*Dataset, error) {
	bdir := filepath.Join(root, BackupsDirName)
	names, err := matching(bdir, ManifestFileName+".", ".bak")
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	if len(names) == 0 {
		return nil, errors.New("no backups found")
	}
	latest := filepath.Join(bdir, names[len(names)-1])
	b, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	ds, err := parseManifest(b)
	if err != nil {
		return nil, fmt.Errorf("parse latest backup: %w", err)
	}
	return ds, nil
}
