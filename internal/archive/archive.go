// Package archive reads and writes workspace export archives: zip files
// holding one YAML document per workspace entity.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zip"
	"gopkg.in/yaml.v3"
)

type Entry struct {
	Name     string    `json:"name"`
	Size     uint64    `json:"size"`
	Modified time.Time `json:"modified"`
}

type Writer struct {
	zw       *zip.Writer
	modified time.Time
}

// NewWriter stamps every entry with modified.
func NewWriter(w io.Writer, modified time.Time) *Writer {
	return &Writer{zw: zip.NewWriter(w), modified: modified}
}

// AddYAML writes v as a deflated YAML document (2-space indent).
func (w *Writer) AddYAML(name string, v any) error {
	f, err := w.zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: w.modified})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return enc.Close()
}

func (w *Writer) Close() error { return w.zw.Close() }

// List returns the entries of an archive in stored order.
func List(b []byte) ([]Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	out := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		out = append(out, Entry{Name: f.Name, Size: f.UncompressedSize64, Modified: f.Modified})
	}
	return out, nil
}

// DecodeYAML decodes the document stored under name into into.
func DecodeYAML(b []byte, name string, into any) error {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		return yaml.NewDecoder(rc).Decode(into)
	}
	return fmt.Errorf("%s: not in archive", name)
}
