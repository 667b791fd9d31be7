package generation

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Names of the embedded JSON schemas.
const (
	SchemaScore         = "score"
	SchemaChunkMetadata = "chunk_metadata"
	SchemaQuestions     = "questions"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var compiledSchemas = mustCompileSchemas(SchemaScore, SchemaChunkMetadata, SchemaQuestions)

func mustCompileSchemas(names ...string) map[string]*jsonschema.Schema {
	out := make(map[string]*jsonschema.Schema, len(names))
	for _, name := range names {
		schema, err := compileSchema(name)
		if err != nil {
			panic(err)
		}
		out[name] = schema
	}
	return out
}

func compileSchema(name string) (*jsonschema.Schema, error) {
	file := name + ".json"
	raw, err := schemaFS.ReadFile("schemas/" + file)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(file, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	schema, err := compiler.Compile(file)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return schema, nil
}

// CheckSchema validates doc against the named embedded schema.
func CheckSchema(name string, doc json.RawMessage) error {
	schema, ok := compiledSchemas[name]
	if !ok {
		return fmt.Errorf("%w: unknown schema %q", ErrInvalidConfig, name)
	}

	var value any
	if err := json.Unmarshal(doc, &value); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("%w: schema %s: %w", ErrInvalidResponse, name, err)
	}
	return nil
}

// ScoreValidator accepts one rubric object whose categories are in range and
// whose final_score equals their sum.
func ScoreValidator() Validator {
	return Validator{
		Name:    SchemaScore,
		Extract: FirstObject,
		Check: func(doc json.RawMessage) error {
			if err := CheckSchema(SchemaScore, doc); err != nil {
				return err
			}
			var scores domain.CategoryScores
			if err := json.Unmarshal(doc, &scores); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
			}
			return scores.Validate()
		},
	}
}

// ChunkMetadataValidator accepts a topics/key_points object.
func ChunkMetadataValidator() Validator {
	return Validator{
		Name:    SchemaChunkMetadata,
		Extract: FirstObject,
		Check: func(doc json.RawMessage) error {
			return CheckSchema(SchemaChunkMetadata, doc)
		},
	}
}

// QuestionsValidator accepts an array of question objects.
func QuestionsValidator() Validator {
	return Validator{
		Name:    SchemaQuestions,
		Extract: FirstArray,
		Check: func(doc json.RawMessage) error {
			return CheckSchema(SchemaQuestions, doc)
		},
	}
}
