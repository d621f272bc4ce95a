// Copyright 2024 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

package types

import (
	"bytes"
	"encoding/json"
)

// Document is a flat JSON object that keeps its keys in insertion order. Tools
// and older clients compare serialized transactions textually, so field order is
// part of the export contract.
type Document struct {
	keys   []string
	values map[string]interface{}
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{values: make(map[string]interface{})}
}

// Set assigns key, appending it if not yet present.
func (d *Document) Set(key string, value interface{}) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (interface{}, bool) {
	v, ok := d.values[key]
	return v, ok
}

// GetString returns the value under key if it is a string.
func (d *Document) GetString(key string) (string, bool) {
	v, ok := d.values[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Keys returns the keys in order.
func (d *Document) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len returns the number of keys.
func (d *Document) Len() int { return len(d.keys) }

// Delete removes key. Missing keys are ignored.
func (d *Document) Delete(key string) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	i := d.indexOf(key)
	d.keys = append(d.keys[:i], d.keys[i+1:]...)
}

// Rename changes the name of key in place, keeping its position. If the new
// name is already taken, that entry is dropped first.
func (d *Document) Rename(from, to string) {
	if from == to {
		return
	}
	v, ok := d.values[from]
	if !ok {
		return
	}
	d.Delete(to)
	d.keys[d.indexOf(from)] = to
	delete(d.values, from)
	d.values[to] = v
}

// SetKeyPos moves key to position pos, shifting the keys in between.
func (d *Document) SetKeyPos(key string, pos int) {
	i := d.indexOf(key)
	if i < 0 {
		return
	}
	if pos < 0 {
		pos = 0
	}
	if pos >= len(d.keys) {
		pos = len(d.keys) - 1
	}
	keys := append(d.keys[:i:i], d.keys[i+1:]...)
	keys = append(keys[:pos], append([]string{key}, keys[pos:]...)...)
	d.keys = keys
}

// Apply rewrites every string value whose key is not listed in skip.
func (d *Document) Apply(fn func(string) string, skip ...string) {
	skipped := make(map[string]bool, len(skip))
	for _, k := range skip {
		skipped[k] = true
	}
	for _, k := range d.keys {
		if skipped[k] {
			continue
		}
		if s, ok := d.values[k].(string); ok {
			d.values[k] = fn(s)
		}
	}
}

func (d *Document) indexOf(key string) int {
	for i, k := range d.keys {
		if k == key {
			return i
		}
	}
	return -1
}

// MarshalJSON writes the object with keys in document order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(d.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
