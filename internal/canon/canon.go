// Package canon implements the single canonical JSON encoding shared by the
// ledger's hash chain and the certificate service's signing pre-images.
// Both require the same byte-for-byte determinism: map keys sorted
// lexicographically, no insignificant whitespace, UTF-8 output, and a fixed
// numeric representation so the same logical value never hashes two ways.
package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Marshal encodes v into ORIGIN's canonical JSON form.
func Marshal(v any) ([]byte, error) {
	// Round-trip through json.Marshal/Unmarshal first so struct tags,
	// omitempty, and custom MarshalJSON methods are honored exactly as they
	// would be for any other response, then re-serialize the generic
	// representation deterministically.
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canon: marshaling input: %w", err)
	}

	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canon: decoding intermediate form: %w", err)
	}

	var buf bytes.Buffer
	if err := encode(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		return encodeNumber(buf, val)
	case string:
		return encodeString(buf, val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encode(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("canon: unsupported type %T", v)
	}
	return nil
}

// encodeString reuses encoding/json's string escaping (HTML-safe characters
// included) so output stays valid across terminals and log sinks, then
// strips json.Marshal's own whitespace guarantees (it adds none for a bare
// string, but we avoid depending on that by construction).
func encodeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("canon: encoding string: %w", err)
	}
	buf.Write(b)
	return nil
}

// encodeNumber renders a JSON number in a single fixed form: integers
// without a decimal point or exponent, and non-integers in Go's shortest
// round-trippable decimal form. json.Number's original source text is
// deliberately not reused verbatim, since "1.0" and "1" must hash the same.
func encodeNumber(buf *bytes.Buffer, n json.Number) error {
	if i, err := n.Int64(); err == nil {
		fmt.Fprintf(buf, "%d", i)
		return nil
	}

	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("canon: invalid number %q: %w", n.String(), err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("canon: number %q is not finite", n.String())
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}
