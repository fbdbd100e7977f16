package load

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/syssam/shapegen/schema/field"
)

// Override is an explicitly declared typing of one field. It takes
// precedence over model inference. Type shortcuts ("string?", "string[]")
// are expanded on load.
type Override struct {
	Type        string   `yaml:"type,omitempty"`
	Optional    *bool    `yaml:"optional,omitempty"`
	Nullable    *bool    `yaml:"nullable,omitempty"`
	Multi       *bool    `yaml:"multi,omitempty"`
	Comment     string   `yaml:"comment,omitempty"`
	SkipComment bool     `yaml:"-"`
	Enum        []string `yaml:"enum,omitempty"`
	SkipEnum    bool     `yaml:"-"`
}

// Empty reports whether the override declares nothing.
func (o *Override) Empty() bool {
	return o == nil || (o.Type == "" && o.Optional == nil && o.Nullable == nil && o.Multi == nil &&
		o.Comment == "" && !o.SkipComment && len(o.Enum) == 0 && !o.SkipEnum)
}

// Merge returns a copy of o with the fields set in child replacing its own.
func (o *Override) Merge(child *Override) *Override {
	if o == nil {
		return child.clone()
	}
	m := o.clone()
	if child == nil {
		return m
	}
	if child.Type != "" {
		m.Type = child.Type
	}
	if child.Optional != nil {
		m.Optional = child.Optional
	}
	if child.Nullable != nil {
		m.Nullable = child.Nullable
	}
	if child.Multi != nil {
		m.Multi = child.Multi
	}
	if child.Comment != "" || child.SkipComment {
		m.Comment, m.SkipComment = child.Comment, child.SkipComment
	}
	if len(child.Enum) > 0 || child.SkipEnum {
		m.Enum, m.SkipEnum = child.Enum, child.SkipEnum
	}
	return m
}

func (o *Override) clone() *Override {
	if o == nil {
		return nil
	}
	c := *o
	c.Enum = append([]string(nil), o.Enum...)
	if len(c.Enum) == 0 {
		c.Enum = nil
	}
	return &c
}

// SetType sets the type from a possibly shortcut type name.
func (o *Override) SetType(t string) {
	name, optional, multi := field.ParseType(t)
	o.Type = name
	if optional {
		v := true
		o.Optional = &v
	}
	if multi {
		v := true
		o.Multi = &v
	}
}

// UnmarshalYAML implements yaml.Unmarshaler. Besides the plain form it
// accepts `comment: false` and `enum: false` to suppress model-provided
// comments and enum values.
func (o *Override) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Type     string    `yaml:"type"`
		Optional *bool     `yaml:"optional"`
		Nullable *bool     `yaml:"nullable"`
		Multi    *bool     `yaml:"multi"`
		Comment  yaml.Node `yaml:"comment"`
		Enum     yaml.Node `yaml:"enum"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*o = Override{Optional: raw.Optional, Nullable: raw.Nullable, Multi: raw.Multi}
	if raw.Type != "" {
		o.SetType(raw.Type)
	}
	switch {
	case raw.Comment.Kind == 0:
	case isFalse(&raw.Comment):
		o.SkipComment = true
	default:
		if err := raw.Comment.Decode(&o.Comment); err != nil {
			return fmt.Errorf("line %d: comment: %w", raw.Comment.Line, err)
		}
	}
	switch {
	case raw.Enum.Kind == 0:
	case isFalse(&raw.Enum):
		o.SkipEnum = true
	default:
		if err := raw.Enum.Decode(&o.Enum); err != nil {
			return fmt.Errorf("line %d: enum: %w", raw.Enum.Line, err)
		}
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (o *Override) MarshalYAML() (any, error) {
	out := make(map[string]any)
	if o.Type != "" {
		out["type"] = o.Type
	}
	if o.Optional != nil {
		out["optional"] = *o.Optional
	}
	if o.Nullable != nil {
		out["nullable"] = *o.Nullable
	}
	if o.Multi != nil {
		out["multi"] = *o.Multi
	}
	switch {
	case o.SkipComment:
		out["comment"] = false
	case o.Comment != "":
		out["comment"] = o.Comment
	}
	switch {
	case o.SkipEnum:
		out["enum"] = false
	case len(o.Enum) > 0:
		out["enum"] = o.Enum
	}
	return out, nil
}

func isFalse(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!bool" && n.Value == "false"
}
