package model

// BlockConfig is one block placement on a page. Key is a client-local
// ordering identity and is never sent to the backend.
type BlockConfig struct {
	Slug   string         `json:"slug" yaml:"slug"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	Key    string         `json:"-" yaml:"-"`
}

type Page struct {
	ID          string        `json:"id,omitempty" yaml:"id,omitempty"`
	WorkspaceID string        `json:"workspaceId,omitempty" yaml:"-"`
	Slug        string        `json:"slug,omitempty" yaml:"slug,omitempty"`
	Name        LocalizedText `json:"name" yaml:"name"`
	Description LocalizedText `json:"description,omitzero" yaml:"description,omitempty"`
	Blocks      []BlockConfig `json:"blocks" yaml:"blocks"`
	Styles      string        `json:"styles,omitempty" yaml:"styles,omitempty"`
	Public      bool          `json:"public,omitempty" yaml:"public,omitempty"`
}

// Block is a workspace-defined block: either a remote component (URL) or a
// composition of other blocks.
type Block struct {
	Slug        string         `json:"slug,omitempty" yaml:"slug,omitempty"`
	Name        LocalizedText  `json:"name" yaml:"name"`
	Description LocalizedText  `json:"description,omitzero" yaml:"description,omitempty"`
	URL         string         `json:"url,omitempty" yaml:"url,omitempty"`
	Schema      map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
	Blocks      []BlockConfig  `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	CSS         string         `json:"css,omitempty" yaml:"css,omitempty"`
}

type BlockSource string

const (
	FromBuiltIn   BlockSource = "builtin"
	FromWorkspace BlockSource = "workspace"
	FromApp       BlockSource = "app"
)

// BlockInCatalog is a block available for placement. Parent is set on preset
// variants of another block.
type BlockInCatalog struct {
	Slug        string         `json:"slug" yaml:"slug"`
	Name        LocalizedText  `json:"name" yaml:"name"`
	Description LocalizedText  `json:"description,omitzero" yaml:"description,omitempty"`
	URL         string         `json:"url,omitempty" yaml:"url,omitempty"`
	BuiltIn     bool           `json:"builtIn,omitempty" yaml:"builtIn,omitempty"`
	Schema      map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
	Parent      string         `json:"block,omitempty" yaml:"block,omitempty"`
	Config      map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	From        BlockSource    `json:"from,omitempty" yaml:"from,omitempty"`
	App         string         `json:"app,omitempty" yaml:"app,omitempty"`
}
