// This file is part of AHBFabric.
//
// AHBFabric is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// AHBFabric is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with AHBFabric.  If not, see <https://www.gnu.org/licenses/>.


package prefs

import (
	"bufio"
	"errors"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/jetsetilly/ahbfabric/curated"
)

// DefaultPrefsFile is the default filename of the global preferences file.
const DefaultPrefsFile = "preferences"

// WarningBoilerPlate is inserted at the beginning of a preferences file.
const WarningBoilerPlate = "*** do not edit this file by hand ***"

// separator of key and value on each line of the preferences file.
const separator = " :: "

// Sentinel patterns for errors returned by the Disk type.
const (
	DuplicateKey = "prefs: duplicate key (%s)"
	BadFile      = "prefs: %v"
)

// Disk represents preference values as stored on disk. Values are added to
// a disk with Add() and are saved and loaded together.
//
// A preferences file can be shared by more than one Disk instance. Entries
// that are not part of the instance are preserved on Save().
type Disk struct {
	path    string
	entries map[string]pref
}

// NewDisk is the preferred method of initialisation for the Disk type.
func NewDisk(path string) (*Disk, error) {
	return &Disk{
		path:    path,
		entries: make(map[string]pref),
	}, nil
}

func (dsk *Disk) String() string {
	var s strings.Builder
	for _, k := range slices.Sorted(maps.Keys(dsk.entries)) {
		s.WriteString(k)
		s.WriteString(separator)
		s.WriteString(dsk.entries[k].String())
		s.WriteString("\n")
	}
	return s.String()
}

// Add preference value to list of values to store/load from disk.
func (dsk *Disk) Add(key string, p pref) error {
	if _, ok := dsk.entries[key]; ok {
		return curated.Errorf(DuplicateKey, key)
	}
	dsk.entries[key] = p
	return nil
}

// read every key/value pair in the file. a missing file is the same as an
// empty file
func (dsk *Disk) read() (map[string]string, error) {
	kv := make(map[string]string)

	f, err := os.Open(dsk.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return kv, nil
		}
		return nil, curated.Errorf(BadFile, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		k, v, ok := strings.Cut(scanner.Text(), separator)
		if !ok {
			continue
		}
		kv[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if err := scanner.Err(); err != nil {
		return nil, curated.Errorf(BadFile, err)
	}

	return kv, nil
}

// Save current preference values to disk.
func (dsk *Disk) Save() (rerr error) {
	kv, err := dsk.read()
	if err != nil {
		return err
	}
	for k, p := range dsk.entries {
		kv[k] = p.String()
	}

	f, err := os.Create(dsk.path)
	if err != nil {
		return curated.Errorf(BadFile, err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = curated.Errorf(BadFile, err)
		}
	}()

	w := bufio.NewWriter(f)
	w.WriteString(WarningBoilerPlate)
	w.WriteString("\n")
	for _, k := range slices.Sorted(maps.Keys(kv)) {
		w.WriteString(k)
		w.WriteString(separator)
		w.WriteString(kv[k])
		w.WriteString("\n")
	}
	if err := w.Flush(); err != nil {
		return curated.Errorf(BadFile, err)
	}

	return nil
}

// Load preference values from disk. Values on the command line stack take
// priority over the values in the file. Keys in the file that haven't been
// added to the disk are ignored.
func (dsk *Disk) Load() error {
	kv, err := dsk.read()
	if err != nil {
		return err
	}

	for k, p := range dsk.entries {
		if ok, v := GetCommandLinePref(k); ok {
			if err := p.Set(v); err != nil {
				return err
			}
			continue
		}
		if v, ok := kv[k]; ok {
			if err := p.Set(v); err != nil {
				return err
			}
		}
	}

	return nil
}

// Reset all preference values to their zero value.
func (dsk *Disk) Reset() error {
	for _, p := range dsk.entries {
		if err := p.Reset(); err != nil {
			return err
		}
	}
	return nil
}
