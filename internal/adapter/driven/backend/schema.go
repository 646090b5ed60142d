package backend

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	envelopeSchemaURL = "repofeed://backend/envelope.json"
	entrySchemaURL    = "repofeed://backend/repo.json"
)

// envelopeSchema describes the top level of a /api/github-repos answer. A
// successful envelope must carry a repos array.
const envelopeSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["success"],
	"properties": {
		"success": {"type": "boolean"},
		"repos": {"type": "array"},
		"source": {"type": ["string", "null"]},
		"error": {"type": ["string", "null"]}
	},
	"if": {"properties": {"success": {"const": true}}},
	"then": {"required": ["repos"]}
}`

// entrySchema describes one repository inside the repos array.
const entrySchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["name", "html_url"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"html_url": {"type": "string", "minLength": 1},
		"description": {"type": ["string", "null"]},
		"language": {"type": ["string", "null"]},
		"status": {"type": ["string", "null"]},
		"updated_at": {"type": ["string", "null"]},
		"created_at": {"type": ["string", "null"]},
		"stargazers_count": {"type": ["integer", "null"]},
		"forks_count": {"type": ["integer", "null"]},
		"topics": {
			"type": ["array", "null"],
			"items": {"type": "string"}
		}
	}
}`

// compileSchema compiles a single in-memory schema document.
func compileSchema(url, source string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("parsing schema %s: %w", url, err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("adding schema %s: %w", url, err)
	}

	schema, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", url, err)
	}
	return schema, nil
}
