package judge

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// The schemas only require the top-level sections and a score per party.
// Everything else is repaired during normalization.
const analysisSchema = `{
	"type": "object",
	"required": ["partyA", "partyB"],
	"properties": {
		"partyA": {"$ref": "#/$defs/party"},
		"partyB": {"$ref": "#/$defs/party"}
	},
	"$defs": {
		"party": {
			"type": "object",
			"required": ["score"],
			"properties": {
				"score": {"type": ["number", "string"]}
			}
		}
	}
}`

const verdictSchema = `{
	"type": "object",
	"required": ["analysis", "verdict"],
	"properties": {
		"analysis": {"$ref": "analysis.schema.json"},
		"verdict": {"$ref": "#/$defs/ruling"}
	},
	"$defs": {
		"ruling": {
			"type": "object",
			"properties": {
				"winner": {"type": ["string", "null"]},
				"confidence": {"type": ["number", "string", "null"]}
			}
		}
	}
}`

const appealSchema = `{
	"type": "object",
	"required": ["newAnalysis", "newVerdict", "appealAssessment"],
	"properties": {
		"newAnalysis": {"$ref": "analysis.schema.json"},
		"newVerdict": {"type": "object"},
		"appealAssessment": {"type": "object"}
	}
}`

const schemaBase = "https://whosright.local/schemas/"

var (
	verdictOutputSchema = mustCompile("verdict.schema.json", verdictSchema)
	appealOutputSchema  = mustCompile("appeal.schema.json", appealSchema)
)

func mustCompile(name, schema string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaBase+"analysis.schema.json", strings.NewReader(analysisSchema)); err != nil {
		panic(err)
	}
	if err := c.AddResource(schemaBase+name, strings.NewReader(schema)); err != nil {
		panic(err)
	}
	return c.MustCompile(schemaBase + name)
}
