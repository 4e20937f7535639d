package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ValidateYAML parses data and validates the document against root.
// Returns the coerced value or an *AggregateError with all failures found.
func ValidateYAML(root Type, data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &AggregateError{Errors: []error{&ValidationError{
			Key:    "<document>",
			Reason: fmt.Sprintf("malformed YAML: %v", err),
		}}}
	}
	return ValidateNode(root, &doc)
}

// ValidateNode validates a parsed node tree against root.
func ValidateNode(root Type, node *yaml.Node) (any, error) {
	if node.Kind == 0 || node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, &AggregateError{Errors: []error{&ValidationError{
				Key:    "<document>",
				Reason: "empty document",
			}}}
		}
		node = node.Content[0]
	}

	var c Collector
	value, _ := root.Validate(node, "", &c)
	if err := c.Err(); err != nil {
		return nil, err
	}
	return value, nil
}
