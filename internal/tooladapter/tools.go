// Package tooladapter exposes the query façade to a conversational agent
// as a closed set of named tools. It marshals arguments and formats
// results as text; all graph logic stays in the engine.
package tooladapter

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Tool is one named operation: its description for the agent, the JSON
// schema its argument bag must satisfy, and the compiled validator.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage

	compiled *jsonschema.Schema
}

// Validate checks an argument bag against the tool's input schema.
func (t *Tool) Validate(args json.RawMessage) error {
	var v any
	if len(args) == 0 {
		v = map[string]any{}
	} else if err := json.Unmarshal(args, &v); err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	return t.compiled.Validate(v)
}

// The closed tool set. Names, descriptions and schemas are part of the
// contract with the agent and must stay stable.
const (
	ToolSearchTerms = "search_terms"
	ToolSearchCUI   = "search_cui"
	ToolCUIInfo     = "get_cui_info"
	ToolAncestors   = "get_cui_ancestors"
	ToolDepth       = "get_cui_depth"
	ToolLCA         = "find_lowest_common_ancestor"
	ToolWuPalmer    = "wu_palmer_similarity"
	ToolHPOTerm     = "get_hpo_term"
)

var toolDefs = []struct {
	name, description, schema string
}{
	{
		ToolSearchTerms,
		"Search for medical terms in UMLS database by ontology",
		`{
			"type": "object",
			"properties": {
				"search": {"type": "string", "description": "The search term to look for"},
				"ontology": {
					"type": "string",
					"description": "The ontology to search in (e.g., HPO, NCI, SNOMEDCT_US)",
					"default": "HPO"
				}
			},
			"required": ["search"]
		}`,
	},
	{
		ToolSearchCUI,
		"Search for CUIs (Concept Unique Identifiers) by term",
		`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "The search term to find matching CUIs"}
			},
			"required": ["query"]
		}`,
	},
	{
		ToolCUIInfo,
		"Get detailed information about a specific CUI",
		`{
			"type": "object",
			"properties": {
				"cui": {"type": "string", "description": "The CUI identifier (e.g., C0001699)"}
			},
			"required": ["cui"]
		}`,
	},
	{
		ToolAncestors,
		"Get all ancestor CUIs in the hierarchy",
		`{
			"type": "object",
			"properties": {
				"cui": {"type": "string", "description": "The CUI identifier to get ancestors for"}
			},
			"required": ["cui"]
		}`,
	},
	{
		ToolDepth,
		"Get the depth of a CUI in the hierarchical structure",
		`{
			"type": "object",
			"properties": {
				"cui": {"type": "string", "description": "The CUI identifier to get depth for"}
			},
			"required": ["cui"]
		}`,
	},
	{
		ToolLCA,
		"Find the lowest common ancestor (LCA) of two CUIs",
		`{
			"type": "object",
			"properties": {
				"cui1": {"type": "string", "description": "First CUI identifier"},
				"cui2": {"type": "string", "description": "Second CUI identifier"}
			},
			"required": ["cui1", "cui2"]
		}`,
	},
	{
		ToolWuPalmer,
		"Compute Wu-Palmer similarity between two CUIs based on hierarchical structure",
		`{
			"type": "object",
			"properties": {
				"cui1": {"type": "string", "description": "First CUI identifier"},
				"cui2": {"type": "string", "description": "Second CUI identifier"}
			},
			"required": ["cui1", "cui2"]
		}`,
	},
	{
		ToolHPOTerm,
		"Get HPO (Human Phenotype Ontology) term and code from a CUI",
		`{
			"type": "object",
			"properties": {
				"cui": {"type": "string", "description": "The CUI identifier to get HPO information for"}
			},
			"required": ["cui"]
		}`,
	},
}

// Tools compiles the tool set. Schemas are static, so failure to compile
// is a programming error and panics at startup.
func Tools() []*Tool {
	tools := make([]*Tool, 0, len(toolDefs))
	for _, def := range toolDefs {
		compiler := jsonschema.NewCompiler()
		url := "umlsd://tools/" + def.name + ".json"
		if err := compiler.AddResource(url, strings.NewReader(def.schema)); err != nil {
			panic(fmt.Sprintf("tool %s schema: %v", def.name, err))
		}
		compiled, err := compiler.Compile(url)
		if err != nil {
			panic(fmt.Sprintf("tool %s schema: %v", def.name, err))
		}
		tools = append(tools, &Tool{
			Name:        def.name,
			Description: def.description,
			InputSchema: json.RawMessage(def.schema),
			compiled:    compiled,
		})
	}
	return tools
}
