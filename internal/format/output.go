package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
	"olympos.io/encoding/edn"
)

// Write renders v in the requested output format.
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "yaml", "yml":
		return WriteYAML(w, v)
	case "edn":
		return WriteEDN(w, v, pretty)
	default:
		return fmt.Errorf("unknown format %q (expected json|yaml|edn)", format)
	}
}

func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func WriteYAML(w io.Writer, v any) error {
	normalized, err := normalize(v)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(normalized); err != nil {
		return err
	}
	return enc.Close()
}

// WriteEDN renders v as EDN with keyword keys sorted alphabetically.
// Values go through a JSON round trip first so struct tags are honoured.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	normalized, err := normalize(v)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := writeEDNValue(&buf, normalized, pretty, 0); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func keyword(k string) edn.Keyword {
	k = strings.TrimSpace(k)
	k = strings.Join(strings.Fields(k), "-")
	if k == "" {
		k = "_"
	}
	return edn.Keyword(k)
}

func writeEDNValue(buf *bytes.Buffer, v any, pretty bool, depth int) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("nil")
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			buf.WriteString(strconv.FormatInt(int64(t), 10))
		} else {
			buf.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
		}
	case string:
		b, err := edn.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(b)
	case []any:
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				sep(buf, pretty, depth+1)
			}
			if err := writeEDNValue(buf, item, pretty, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sep(buf, pretty, depth+1)
			}
			kb, err := edn.Marshal(keyword(k))
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(' ')
			if err := writeEDNValue(buf, t[k], pretty, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("edn: unsupported value %T", v)
	}
	return nil
}

func sep(buf *bytes.Buffer, pretty bool, depth int) {
	if !pretty {
		buf.WriteByte(' ')
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat(" ", depth))
}
