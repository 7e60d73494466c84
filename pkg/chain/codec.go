package chain

import (
	"encoding/json"
	"fmt"
)

// InputRecord is the serialized form of one parameter override.
type InputRecord struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"displayName"`
	Value       float64 `json:"value"`
}

// EntryRecord is the serialized form of one chain entry. Disabled entries
// are serialized too; the enabled flag travels with them.
type EntryRecord struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Enabled bool          `json:"enabled"`
	Inputs  []InputRecord `json:"inputs"`
}

// Document is the exchange representation of a chain, in chain order.
type Document []EntryRecord

// Export converts a chain to its exchange representation.
func Export(c Chain) Document {
	doc := make(Document, 0, len(c.entries))
	for _, e := range c.entries {
		rec := EntryRecord{
			ID:      e.ID,
			Name:    e.Name,
			Enabled: e.Enabled,
			Inputs:  make([]InputRecord, 0, len(e.Overrides)),
		}
		for _, ov := range e.Overrides {
			rec.Inputs = append(rec.Inputs, InputRecord(ov))
		}
		doc = append(doc, rec)
	}
	return doc
}

// Import rebuilds a chain from its exchange representation, preserving
// order, enabled flags, and all override values exactly.
func Import(doc Document) Chain {
	c := Chain{entries: make([]Entry, 0, len(doc))}
	for _, rec := range doc {
		entry := Entry{
			ID:        rec.ID,
			Name:      rec.Name,
			Enabled:   rec.Enabled,
			Overrides: make([]Override, 0, len(rec.Inputs)),
		}
		for _, in := range rec.Inputs {
			entry.Overrides = append(entry.Overrides, Override(in))
		}
		c.entries = append(c.entries, entry)
	}
	return c
}

// Marshal serializes a chain as JSON.
func Marshal(c Chain) ([]byte, error) {
	data, err := json.MarshalIndent(Export(c), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chain: %w", err)
	}
	return data, nil
}

// Unmarshal deserializes a chain from JSON.
func Unmarshal(data []byte) (Chain, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Chain{}, fmt.Errorf("failed to unmarshal chain: %w", err)
	}
	return Import(doc), nil
}
