// Package schema provides strict, ordered validation of YAML documents.
//
// A schema is a tree of Types built from Map, Seq, Str, Int, Bool and Enum. It is
// applied to a yaml.v3 node tree rather than to decoded Go values, so scalars are
// coerced from their lexical form (the document `timeout: "10"` and `timeout: 10`
// are the same integer), unknown keys are rejected, and every failure carries the
// dotted path and source line of the offending node.
//
// Basic usage:
//
//	doc := schema.Map(
//	    schema.Required("name", schema.NonEmptyStr()),
//	    schema.Optional("retries", schema.Int()),
//	    schema.Optional("tags", schema.Seq(schema.Str())),
//	)
//
//	value, err := schema.ValidateYAML(doc, data)
//	if err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        // Handle each failure
//	    }
//	}
//
// Validated values are plain Go values: map[string]any for maps (only keys that
// were present), []any for sequences, and string, int or bool for scalars.
// Enum values are returned in their canonical spelling.
package schema
