package model

type When struct {
	Events    []string `json:"events,omitempty" yaml:"events,omitempty"`
	Schedules []string `json:"schedules,omitempty" yaml:"schedules,omitempty"`
	Endpoint  any      `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// Empty reports whether no trigger is declared.
func (w *When) Empty() bool {
	return w == nil || (len(w.Events) == 0 && len(w.Schedules) == 0 && w.Endpoint == nil)
}

type Automation struct {
	ID          string                    `json:"id,omitempty" yaml:"id,omitempty"`
	Slug        string                    `json:"slug,omitempty" yaml:"slug,omitempty"`
	Name        LocalizedText             `json:"name" yaml:"name"`
	Description LocalizedText             `json:"description,omitzero" yaml:"description,omitempty"`
	Arguments   map[string]map[string]any `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	When        *When                     `json:"when,omitempty" yaml:"when,omitempty"`
	Do          []Instruction             `json:"do" yaml:"do"`
	Output      any                       `json:"output,omitempty" yaml:"output,omitempty"`
	Private     bool                      `json:"private,omitempty" yaml:"private,omitempty"`
	Disabled    bool                      `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// InstructionCount counts instructions recursively, including nested branches.
func (a *Automation) InstructionCount() int {
	if a == nil {
		return 0
	}
	return countInstructions(a.Do)
}

func countInstructions(list []Instruction) int {
	n := 0
	for _, in := range list {
		n++
		for _, child := range in.Children() {
			n += countInstructions(child)
		}
	}
	return n
}
