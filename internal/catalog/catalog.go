// Package catalog binds classifier output indices to plant and remedy data.
//
// The order of the default table is the order of the trained model's output
// layer. Reordering it without retraining silently mislabels every result.
package catalog

import (
	"fmt"
	"strings"

	"github.com/Brownie44l1/plant-disease-api/internal/domain"
)

// Entry describes one class the classifier can output.
type Entry struct {
	Label  string `json:"label"`
	Plant  string `json:"plant"`
	Remedy string `json:"remedy"`
}

// DisplayName renders the label the way it is shown to users.
func (e Entry) DisplayName() string {
	return DisplayName(e.Label)
}

func DisplayName(label string) string {
	return strings.ReplaceAll(label, "_", " ")
}

// Catalog is an immutable ordered table of entries.
type Catalog struct {
	entries []Entry
	index   map[string]int
}

func New(entries []Entry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog: no entries")
	}

	c := &Catalog{
		entries: make([]Entry, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Label) == "" {
			return nil, fmt.Errorf("catalog: entry %d has empty label", i)
		}
		if prev, ok := c.index[e.Label]; ok {
			return nil, fmt.Errorf("catalog: duplicate label %q at %d and %d", e.Label, prev, i)
		}
		c.entries[i] = e
		c.index[e.Label] = i
	}
	return c, nil
}

func MustNew(entries []Entry) *Catalog {
	c, err := New(entries)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

// Lookup returns the entry bound to a classifier output index.
func (c *Catalog) Lookup(index int) (Entry, error) {
	if index < 0 || index >= len(c.entries) {
		return Entry{}, domain.WrapError(domain.ErrOutOfRange, "catalog lookup",
			fmt.Errorf("index %d outside [0, %d)", index, len(c.entries)))
	}
	return c.entries[index], nil
}

// IndexOf returns the output index for a label, or -1.
func (c *Catalog) IndexOf(label string) int {
	if i, ok := c.index[label]; ok {
		return i
	}
	return -1
}

// Entries returns a copy of the table in model order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// ValidateOutputSize checks the model's output length against the table.
func (c *Catalog) ValidateOutputSize(n int) error {
	if n != len(c.entries) {
		return fmt.Errorf("catalog has %d classes but model outputs %d", len(c.entries), n)
	}
	return nil
}

// ValidateClasses checks that a model's declared class list matches the
// table exactly, including order.
func (c *Catalog) ValidateClasses(labels []string) error {
	if err := c.ValidateOutputSize(len(labels)); err != nil {
		return err
	}
	for i, label := range labels {
		if label != c.entries[i].Label {
			return fmt.Errorf("class %d: model declares %q, catalog has %q", i, label, c.entries[i].Label)
		}
	}
	return nil
}
