package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

type InstructionKind string

const (
	KindEmit       InstructionKind = "emit"
	KindWait       InstructionKind = "wait"
	KindSet        InstructionKind = "set"
	KindDelete     InstructionKind = "delete"
	KindConditions InstructionKind = "conditions"
	KindRepeat     InstructionKind = "repeat"
	KindAll        InstructionKind = "all"
	KindBreak      InstructionKind = "break"
	// KindApp covers any instruction provided by an installed app or by
	// another automation of the workspace.
	KindApp InstructionKind = "app"
)

type Emit struct {
	Event   string `json:"event" yaml:"event"`
	Payload any    `json:"payload,omitempty" yaml:"payload,omitempty"`
	Target  any    `json:"target,omitempty" yaml:"target,omitempty"`
	Private bool   `json:"private,omitempty" yaml:"private,omitempty"`
}

type WaitEvent struct {
	Event  string         `json:"event" yaml:"event"`
	Filter map[string]any `json:"filter,omitempty" yaml:"filter,omitempty"`
}

type Wait struct {
	OneOf   []WaitEvent `json:"oneOf,omitempty" yaml:"oneOf,omitempty"`
	Timeout int         `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Output  string      `json:"output,omitempty" yaml:"output,omitempty"`
}

type Set struct {
	Name  string `json:"name" yaml:"name"`
	Value any    `json:"value" yaml:"value"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
}

type Delete struct {
	Name string `json:"name" yaml:"name"`
}

type Repeat struct {
	On    string        `json:"on,omitempty" yaml:"on,omitempty"`
	Until any           `json:"until,omitempty" yaml:"until,omitempty"`
	Do    []Instruction `json:"do" yaml:"do"`
}

type Break struct {
	Scope string `json:"scope,omitempty" yaml:"scope,omitempty"`
}

// Branch is one `if`/`elseif` arm of a conditions instruction. Branch order
// is significant and preserved by both codecs.
type Branch struct {
	Condition string
	Do        []Instruction
}

type Conditions struct {
	Branches []Branch
	Default  []Instruction
}

type AppInstruction struct {
	Name string
	Args any
}

// Instruction is a tagged union: exactly one of the pointers matches Kind.
type Instruction struct {
	Kind       InstructionKind
	Emit       *Emit
	Wait       *Wait
	Set        *Set
	Delete     *Delete
	Conditions *Conditions
	Repeat     *Repeat
	All        []Instruction
	Break      *Break
	App        *AppInstruction
}

// Name returns the key the instruction is serialised under.
func (in Instruction) Name() string {
	if in.Kind == KindApp && in.App != nil {
		return in.App.Name
	}
	return string(in.Kind)
}

// Children returns the nested instruction lists, in document order.
func (in Instruction) Children() [][]Instruction {
	switch in.Kind {
	case KindConditions:
		if in.Conditions == nil {
			return nil
		}
		out := make([][]Instruction, 0, len(in.Conditions.Branches)+1)
		for _, b := range in.Conditions.Branches {
			out = append(out, b.Do)
		}
		if in.Conditions.Default != nil {
			out = append(out, in.Conditions.Default)
		}
		return out
	case KindRepeat:
		if in.Repeat == nil {
			return nil
		}
		return [][]Instruction{in.Repeat.Do}
	case KindAll:
		return [][]Instruction{in.All}
	}
	return nil
}

func (in Instruction) body() (any, error) {
	switch in.Kind {
	case KindEmit:
		return in.Emit, nil
	case KindWait:
		return in.Wait, nil
	case KindSet:
		return in.Set, nil
	case KindDelete:
		return in.Delete, nil
	case KindRepeat:
		return in.Repeat, nil
	case KindAll:
		if in.All == nil {
			return []Instruction{}, nil
		}
		return in.All, nil
	case KindBreak:
		if in.Break == nil {
			return map[string]any{}, nil
		}
		return in.Break, nil
	case KindApp:
		if in.App == nil {
			return nil, errors.New("app instruction without name")
		}
		return in.App.Args, nil
	}
	return nil, fmt.Errorf("unknown instruction kind %q", in.Kind)
}

func kindOf(name string) InstructionKind {
	switch InstructionKind(name) {
	case KindEmit, KindWait, KindSet, KindDelete, KindConditions, KindRepeat, KindAll, KindBreak:
		return InstructionKind(name)
	}
	return KindApp
}

func (in Instruction) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	name, err := json.Marshal(in.Name())
	if err != nil {
		return nil, err
	}
	buf.WriteByte('{')
	buf.Write(name)
	buf.WriteByte(':')
	if in.Kind == KindConditions {
		b, err := in.Conditions.marshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	} else {
		body, err := in.body()
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *Conditions) marshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, do []Instruction) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		if do == nil {
			do = []Instruction{}
		}
		v, err := json.Marshal(do)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}
	if c != nil {
		for _, b := range c.Branches {
			if err := write(b.Condition, b.Do); err != nil {
				return nil, err
			}
		}
		if c.Default != nil {
			if err := write("default", c.Default); err != nil {
				return nil, err
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (in *Instruction) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("instruction must be an object: %w", err)
	}
	if len(raw) != 1 {
		keys := make([]string, 0, len(raw))
		for k := range raw {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Errorf("instruction must have exactly one key, got %v", keys)
	}
	for name, body := range raw {
		return in.decode(name, func(v any) error {
			if name == string(KindConditions) {
				return v.(*Conditions).unmarshalJSON(body)
			}
			return json.Unmarshal(body, v)
		})
	}
	return nil
}

func (c *Conditions) unmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("conditions must be an object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var do []Instruction
		if err := dec.Decode(&do); err != nil {
			return fmt.Errorf("conditions[%s]: %w", key, err)
		}
		if key == "default" {
			c.Default = do
			continue
		}
		c.Branches = append(c.Branches, Branch{Condition: key, Do: do})
	}
	_, err = dec.Token()
	return err
}

func (in *Instruction) decode(name string, into func(v any) error) error {
	kind := kindOf(name)
	next := Instruction{Kind: kind}
	var target any
	switch kind {
	case KindEmit:
		next.Emit = &Emit{}
		target = next.Emit
	case KindWait:
		next.Wait = &Wait{}
		target = next.Wait
	case KindSet:
		next.Set = &Set{}
		target = next.Set
	case KindDelete:
		next.Delete = &Delete{}
		target = next.Delete
	case KindConditions:
		next.Conditions = &Conditions{}
		target = next.Conditions
	case KindRepeat:
		next.Repeat = &Repeat{}
		target = next.Repeat
	case KindAll:
		target = &next.All
	case KindBreak:
		next.Break = &Break{}
		target = next.Break
	case KindApp:
		next.App = &AppInstruction{Name: name}
		target = &next.App.Args
	}
	if err := into(target); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*in = next
	return nil
}

func (in Instruction) MarshalYAML() (any, error) {
	key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: in.Name()}
	value := &yaml.Node{}
	if in.Kind == KindConditions {
		value.Kind = yaml.MappingNode
		add := func(k string, do []Instruction) error {
			n := &yaml.Node{}
			if do == nil {
				do = []Instruction{}
			}
			if err := n.Encode(do); err != nil {
				return err
			}
			value.Content = append(value.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, n)
			return nil
		}
		if in.Conditions != nil {
			for _, b := range in.Conditions.Branches {
				if err := add(b.Condition, b.Do); err != nil {
					return nil, err
				}
			}
			if in.Conditions.Default != nil {
				if err := add("default", in.Conditions.Default); err != nil {
					return nil, err
				}
			}
		}
	} else {
		body, err := in.body()
		if err != nil {
			return nil, err
		}
		if err := value.Encode(body); err != nil {
			return nil, err
		}
	}
	return &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{key, value}}, nil
}

func (in *Instruction) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: instruction must be a mapping", node.Line)
	}
	if len(node.Content) != 2 {
		return fmt.Errorf("line %d: instruction must have exactly one key", node.Line)
	}
	name := node.Content[0].Value
	body := node.Content[1]
	return in.decode(name, func(v any) error {
		if c, ok := v.(*Conditions); ok {
			return c.unmarshalYAML(body)
		}
		return body.Decode(v)
	})
}

func (c *Conditions) unmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: conditions must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var do []Instruction
		if err := node.Content[i+1].Decode(&do); err != nil {
			return err
		}
		if key == "default" {
			c.Default = do
			continue
		}
		c.Branches = append(c.Branches, Branch{Condition: key, Do: do})
	}
	return nil
}
