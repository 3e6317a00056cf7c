// Package wire encodes bundles as JSON manifests. A manifest is a single
// object whose key order is the bundle order.
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"relocate/internal/domain"
)

const (
	typeChunk = "chunk"
	typeAsset = "asset"
)

// ErrManifest is returned for structurally invalid manifests.
var ErrManifest = errors.New("invalid bundle manifest")

type entryJSON struct {
	Type           string            `json:"type"`
	FileName       string            `json:"fileName"`
	Code           *string           `json:"code,omitempty"`
	Imports        []string          `json:"imports,omitempty"`
	DynamicImports []string          `json:"dynamicImports,omitempty"`
	Map            *domain.SourceMap `json:"map,omitempty"`
	Source         *string           `json:"source,omitempty"`
}

// Decode reads a manifest, preserving key order.
func Decode(r io.Reader) (*domain.Bundle, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected object", ErrManifest)
	}

	b := domain.NewBundle()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrManifest, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected key", ErrManifest)
		}

		var ej entryJSON
		if err := dec.Decode(&ej); err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", ErrManifest, key, err)
		}
		e, err := fromJSON(key, ej)
		if err != nil {
			return nil, err
		}
		if _, dup := b.Get(key); dup {
			return nil, fmt.Errorf("%w: duplicate key %s", ErrManifest, key)
		}
		b.Set(key, e)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	return b, nil
}

func fromJSON(key string, ej entryJSON) (domain.Entry, error) {
	name := ej.FileName
	if name == "" {
		name = key
	}
	switch ej.Type {
	case typeChunk:
		c := &domain.Chunk{
			FileName:       name,
			Imports:        ej.Imports,
			DynamicImports: ej.DynamicImports,
			Map:            ej.Map,
		}
		if ej.Code != nil {
			c.Code = *ej.Code
		}
		return c, nil
	case typeAsset:
		a := &domain.Asset{FileName: name}
		if ej.Source != nil {
			a.Source = []byte(*ej.Source)
		}
		return a, nil
	}
	return nil, fmt.Errorf("%w: entry %s has type %q", ErrManifest, key, ej.Type)
}

// Encode writes b as a manifest in bundle order.
func Encode(w io.Writer, b *domain.Bundle) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ke := range b.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ke.Key)
		if err != nil {
			return err
		}
		val, err := json.Marshal(toJSON(ke.Entry))
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", ke.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString("}\n")

	_, err := w.Write(buf.Bytes())
	return err
}

func toJSON(e domain.Entry) entryJSON {
	switch e := e.(type) {
	case *domain.Chunk:
		code := e.Code
		return entryJSON{
			Type:           typeChunk,
			FileName:       e.FileName,
			Code:           &code,
			Imports:        e.Imports,
			DynamicImports: e.DynamicImports,
			Map:            e.Map,
		}
	case *domain.Asset:
		src := string(e.Source)
		return entryJSON{Type: typeAsset, FileName: e.FileName, Source: &src}
	}
	return entryJSON{FileName: e.Name()}
}
