package config

import "github.com/aretw0/mediabridge/pkg/schema"

// Document keys.
const (
	keyName        = "name"
	keyDescription = "description"
	keyCommand     = "command"
	keyProgram     = "program"
	keyArguments   = "arguments"
	keyArgList     = "argument-list"
	keyArgument    = "argument"
	keyIfSet       = "if-property-set"
	keyTimeout     = "timeout"
	keyProperties  = "properties"
	keyInput       = "input"
	keyOutput      = "output"
	keyType        = "type"
	keyPassVia     = "pass-via"
	keyRequired    = "required"
	keyDefault     = "default-value"
	keyFileExt     = "file-ext"
)

var mediaKinds = schema.Enum("text", "image", "sound", "movie")

var transferModes = schema.Enum("text", "file", "stream")

// documentSchema is the shape of a generator document.
var documentSchema = schema.Map(
	schema.Required(keyName, schema.NonEmptyStr()),
	schema.Optional(keyDescription, schema.Str()),
	schema.Required(keyCommand, schema.Map(
		schema.Required(keyProgram, schema.NonEmptyStr()),
		schema.Optional(keyArguments, schema.Str()),
		schema.Optional(keyArgList, schema.Seq(schema.Map(
			schema.Required(keyArgument, schema.Str()),
			schema.Optional(keyIfSet, schema.NonEmptyStr()),
		))),
		schema.Optional(keyTimeout, schema.MinInt(0)),
	)),
	schema.Optional(keyProperties, schema.Map(
		schema.Optional(keyInput, schema.Seq(schema.Map(
			schema.Required(keyName, schema.NonEmptyStr()),
			schema.Required(keyType, mediaKinds),
			schema.Optional(keyPassVia, transferModes),
			schema.Optional(keyRequired, schema.Bool()),
			schema.Optional(keyDefault, schema.Str()),
		))),
		schema.Optional(keyOutput, schema.Seq(schema.Map(
			schema.Required(keyName, schema.NonEmptyStr()),
			schema.Required(keyType, mediaKinds),
			schema.Optional(keyPassVia, transferModes),
			schema.Optional(keyFileExt, schema.NonEmptyStr()),
			schema.Optional(keyRequired, schema.Bool()),
		))),
	)),
)
