package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// listKeys hold YAML sequences; `config set` splits their value on commas.
var listKeys = map[string]bool{
	"workflow.finished_statuses": true,
	"workflow.active_statuses":   true,
}

// IsKnownKey reports whether key is a setting jps reads.
func IsKnownKey(key string) bool {
	_, ok := envBindings[key]
	return ok
}

// SetYamlConfig sets key to value in the YAML file at path, creating the file
// and any intermediate mappings as needed. Comments and unrelated keys are
// kept.
func SetYamlConfig(path, key, value string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}

	content, err := os.ReadFile(path) // #nosec G304 - path is the user's own config file
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	newContent, err := updateYamlKey(content, key, value)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, newContent, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// updateYamlKey sets a dotted key in a YAML document.
func updateYamlKey(content []byte, key, value string) ([]byte, error) {
	var doc yaml.Node
	if len(bytes.TrimSpace(content)) > 0 {
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}

	node := doc.Content[0]
	parts := strings.Split(key, ".")
	for i, part := range parts {
		if node.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("cannot set %s: %s is not a mapping", key, strings.Join(parts[:i], "."))
		}
		child := mappingValue(node, part)
		if i == len(parts)-1 {
			newValue := valueNode(key, value)
			if child == nil {
				node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: part}, newValue)
			} else {
				newValue.HeadComment = child.HeadComment
				newValue.LineComment = child.LineComment
				*child = *newValue
			}
			break
		}
		if child == nil {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: part}, child)
		}
		node = child
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func valueNode(key, value string) *yaml.Node {
	if listKeys[key] {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range splitList(value) {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: item})
		}
		return seq
	}
	tag := scalarTag(value)
	if tag == "!!bool" {
		value = strings.ToLower(value)
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// scalarTag picks the YAML type for a value typed on the command line.
func scalarTag(value string) string {
	lower := strings.ToLower(value)
	if lower == "true" || lower == "false" {
		return "!!bool"
	}
	if _, err := strconv.Atoi(value); err == nil {
		return "!!int"
	}
	return "!!str"
}
