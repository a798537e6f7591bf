package mock

import (
	"bytes"

	"github.com/prismeai/prisme-cli/internal/archive"
)

// Export archives the workspace as YAML documents: index.yml for the
// workspace itself, then one file per automation, page, block and import.
func (b *Backend) Export(wsID string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, err := b.workspace(wsID)
	if err != nil {
		return nil, err
	}
	cp := *ws

	index := cp
	index.Automations = nil
	index.Pages = nil
	index.Blocks = nil
	index.Imports = nil

	modified := b.now()
	if cp.UpdatedAt != nil {
		modified = *cp.UpdatedAt
	}

	var buf bytes.Buffer
	w := archive.NewWriter(&buf, modified)
	if err := w.AddYAML("index.yml", index); err != nil {
		return nil, err
	}
	for _, slug := range sortedKeys(cp.Automations) {
		if err := w.AddYAML("automations/"+slug+".yml", cp.Automations[slug]); err != nil {
			return nil, err
		}
	}
	for _, slug := range sortedKeys(cp.Pages) {
		p := *cp.Pages[slug]
		p.Slug = slug
		if err := w.AddYAML("pages/"+slug+".yml", &p); err != nil {
			return nil, err
		}
	}
	for _, slug := range sortedKeys(cp.Blocks) {
		if err := w.AddYAML("blocks/"+slug+".yml", cp.Blocks[slug]); err != nil {
			return nil, err
		}
	}
	for _, slug := range sortedKeys(cp.Imports) {
		if err := w.AddYAML("imports/"+slug+".yml", cp.Imports[slug]); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
