package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
)

const dependenciesKey = "dependencies"

// Dependencies maps package identifiers to specifiers and remembers the
// order keys were first seen, so rewriting a manifest keeps its layout.
type Dependencies struct {
	keys   []string
	values map[string]string
}

func NewDependencies() *Dependencies {
	return &Dependencies{values: make(map[string]string)}
}

func (d *Dependencies) Get(pkg string) (string, bool) {
	v, ok := d.values[pkg]
	return v, ok
}

func (d *Dependencies) Set(pkg, spec string) {
	if _, ok := d.values[pkg]; !ok {
		d.keys = append(d.keys, pkg)
	}
	d.values[pkg] = spec
}

func (d *Dependencies) Delete(pkg string) bool {
	if _, ok := d.values[pkg]; !ok {
		return false
	}
	delete(d.values, pkg)
	d.keys = slices.DeleteFunc(d.keys, func(k string) bool { return k == pkg })
	return true
}

func (d *Dependencies) Len() int {
	return len(d.keys)
}

func (d *Dependencies) Keys() []string {
	return slices.Clone(d.keys)
}

// All yields entries in manifest order.
func (d *Dependencies) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range d.keys {
			if !yield(k, d.values[k]) {
				return
			}
		}
	}
}

func (d *Dependencies) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeString(&buf, d.values[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *Dependencies) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%s must be an object", dependenciesKey)
	}

	out := NewDependencies()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		spec, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s: version of %q must be a string", dependenciesKey, key)
		}
		out.Set(key, spec)
	}

	*d = *out
	return nil
}

type field struct {
	key   string
	value json.RawMessage
}

// Manifest is the gpm.json document. Fields other than dependencies are
// carried through untouched.
type Manifest struct {
	Dependencies *Dependencies
	extra        []field
}

func NewManifest() *Manifest {
	return &Manifest{Dependencies: NewDependencies()}
}

func (m *Manifest) MarshalJSON() ([]byte, error) {
	deps := m.Dependencies
	if deps == nil {
		deps = NewDependencies()
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	wroteDeps := false
	for i, f := range m.extra {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, f.key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if f.key == dependenciesKey {
			raw, err := deps.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(raw)
			wroteDeps = true
			continue
		}
		buf.Write(f.value)
	}
	if !wroteDeps {
		if len(m.extra) > 0 {
			buf.WriteByte(',')
		}
		_ = writeString(&buf, dependenciesKey)
		buf.WriteByte(':')
		raw, err := deps.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *Manifest) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("manifest must be an object")
	}

	var (
		fields []field
		deps   *Dependencies
	)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if key == dependenciesKey {
			deps = NewDependencies()
			if err := deps.UnmarshalJSON(raw); err != nil {
				return err
			}
			fields = append(fields, field{key: key})
			continue
		}
		fields = append(fields, field{key: key, value: raw})
	}

	if deps == nil {
		return fmt.Errorf("missing %q field", dependenciesKey)
	}

	m.Dependencies = deps
	m.extra = fields
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
