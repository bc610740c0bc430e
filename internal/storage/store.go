// Package storage persists the recipes, favorites and history collections.
// Every backend stores a collection as one JSON array document and returns
// an empty collection when the document does not exist yet.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// Collection names one independently stored collection.
type Collection string

const (
	Recipes   Collection = "recipes"
	Favorites Collection = "favorites"
	History   Collection = "history"
)

// ErrCorrupt wraps decode failures of a stored collection. It is not
// recoverable: the caller cannot proceed without the data.
var ErrCorrupt = errors.New("malformed collection")

// Store defines the interface for collection persistence.
type Store interface {
	// Load decodes the collection into dst, a pointer to a slice. When the
	// collection has never been saved dst is left untouched and nil is returned.
	Load(ctx context.Context, c Collection, dst any) error
	// Save overwrites the collection with records.
	Save(ctx context.Context, c Collection, records any) error
	Close() error
}

// Write is one collection overwrite inside a batch.
type Write struct {
	Collection Collection
	Records    any
}

// BatchSaver is implemented by stores that can overwrite several
// collections as a single unit.
type BatchSaver interface {
	SaveAll(ctx context.Context, writes ...Write) error
}

// encode renders records as indented JSON with non-ASCII and HTML
// characters written literally. A nil slice is written as an empty array.
func encode(records any) ([]byte, error) {
	if v := reflect.ValueOf(records); v.Kind() == reflect.Slice && v.IsNil() {
		return []byte("[]\n"), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(c Collection, data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w %s: %v", ErrCorrupt, c, err)
	}
	return nil
}
