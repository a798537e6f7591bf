package model

type AppInstance struct {
	ID         string           `json:"id,omitempty" yaml:"id,omitempty"`
	Slug       string           `json:"slug" yaml:"slug"`
	AppSlug    string           `json:"appSlug" yaml:"appSlug"`
	AppName    LocalizedText    `json:"appName,omitzero" yaml:"appName,omitempty"`
	AppVersion string           `json:"appVersion,omitempty" yaml:"appVersion,omitempty"`
	Config     *ConfigSection   `json:"config,omitempty" yaml:"config,omitempty"`
	Disabled   bool             `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Blocks     []BlockInCatalog `json:"blocks,omitempty" yaml:"blocks,omitempty"`
}
