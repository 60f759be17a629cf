package core

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// StringMap is a string-to-string map that remembers insertion order.
// Encoded maps are order sensitive, so record fields holding key/value
// metadata use it instead of a Go map.
type StringMap struct {
	m *orderedmap.OrderedMap[string, string]
}

// NewStringMap returns a map holding pairs, which are read as key, value,
// key, value. A trailing key without a value is stored with an empty value.
func NewStringMap(pairs ...string) *StringMap {
	sm := &StringMap{m: orderedmap.New[string, string]()}
	for i := 0; i < len(pairs); i += 2 {
		v := ""
		if i+1 < len(pairs) {
			v = pairs[i+1]
		}
		sm.Set(pairs[i], v)
	}
	return sm
}

// Set stores value under key. Replacing an existing key keeps its position.
func (sm *StringMap) Set(key, value string) {
	if sm.m == nil {
		sm.m = orderedmap.New[string, string]()
	}
	sm.m.Set(key, value)
}

// Get returns the value stored under key.
func (sm *StringMap) Get(key string) (string, bool) {
	if sm == nil || sm.m == nil {
		return "", false
	}
	return sm.m.Get(key)
}

// Len returns the number of pairs. A nil map is empty.
func (sm *StringMap) Len() int {
	if sm == nil || sm.m == nil {
		return 0
	}
	return sm.m.Len()
}

// Range calls fn for each pair in insertion order until fn returns false.
func (sm *StringMap) Range(fn func(key, value string) bool) {
	if sm == nil || sm.m == nil {
		return
	}
	for pair := sm.m.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Keys returns the keys in insertion order.
func (sm *StringMap) Keys() []string {
	keys := make([]string, 0, sm.Len())
	sm.Range(func(k, _ string) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// UnmarshalYAML decodes a YAML mapping, keeping the order the keys appear
// in the document. Non-string scalars are stored as their text.
func (sm *StringMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of strings, got %s", value.Line, value.ShortTag())
	}
	m := orderedmap.New[string, string](len(value.Content) / 2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var k, v string
		if err := value.Content[i].Decode(&k); err != nil {
			return err
		}
		if err := value.Content[i+1].Decode(&v); err != nil {
			return err
		}
		m.Set(k, v)
	}
	sm.m = m
	return nil
}

// MarshalYAML encodes the map as a YAML mapping in insertion order.
func (sm *StringMap) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	sm.Range(func(k, v string) bool {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v})
		return true
	})
	return node, nil
}
