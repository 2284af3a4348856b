package project

import (
	"encoding/json"
	"time"
)

// GeneratedFile is one named text artifact belonging to a project. Names are
// path-like and may contain "/" to denote folders. A name is unique within a
// project: writing an existing name replaces content and timestamp, never
// appends.
type GeneratedFile struct {
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
	UsedFor   string    `json:"used_for,omitempty"`
}

// Collection is an ordered set of generated files keyed by exact,
// case-sensitive name. Iteration order is first-write order; an overwrite
// keeps the file's original position.
type Collection struct {
	files map[string]GeneratedFile
	order []string
}

// NewCollection creates a collection, optionally seeded with files.
func NewCollection(files ...GeneratedFile) *Collection {
	c := &Collection{files: make(map[string]GeneratedFile)}
	for _, f := range files {
		c.Put(f)
	}
	return c
}

// Put inserts or replaces a file by exact name.
func (c *Collection) Put(f GeneratedFile) {
	if _, exists := c.files[f.Name]; !exists {
		c.order = append(c.order, f.Name)
	}
	c.files[f.Name] = f
}

// Delete removes a file by exact name. Returns false if no such file exists.
func (c *Collection) Delete(name string) bool {
	if _, exists := c.files[name]; !exists {
		return false
	}
	delete(c.files, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Get looks up a file by exact name.
func (c *Collection) Get(name string) (GeneratedFile, bool) {
	f, ok := c.files[name]
	return f, ok
}

// Has reports whether a file with the exact name exists.
func (c *Collection) Has(name string) bool {
	_, ok := c.files[name]
	return ok
}

// Len returns the number of files in the collection.
func (c *Collection) Len() int {
	return len(c.files)
}

// Names returns the file names in first-write order.
func (c *Collection) Names() []string {
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// Files returns the files in first-write order.
func (c *Collection) Files() []GeneratedFile {
	files := make([]GeneratedFile, 0, len(c.order))
	for _, name := range c.order {
		files = append(files, c.files[name])
	}
	return files
}

// Clone returns an independent copy of the collection.
func (c *Collection) Clone() *Collection {
	return NewCollection(c.Files()...)
}

// MarshalJSON encodes the collection as an ordered array of files.
func (c *Collection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Files())
}

// UnmarshalJSON rebuilds the collection from an array of files.
func (c *Collection) UnmarshalJSON(data []byte) error {
	var files []GeneratedFile
	if err := json.Unmarshal(data, &files); err != nil {
		return err
	}
	c.files = make(map[string]GeneratedFile, len(files))
	c.order = nil
	for _, f := range files {
		c.Put(f)
	}
	return nil
}
