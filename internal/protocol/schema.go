package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	reflector "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const batchSchemaURL = "batch.schema.json"

// BatchSchema reflects the JSON schema of an inbound frame from Batch.
func BatchSchema() *reflector.Schema {
	r := reflector.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	s := r.Reflect(new(Batch))
	s.Title = "Inbound batch"
	s.Description = "One server frame: a success flag and an ordered list of updates"
	return s
}

// CommandSchema reflects the JSON schema of one outbound command.
func CommandSchema() *reflector.Schema {
	r := reflector.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	s := r.Reflect(new(Command))
	s.Title = "Outbound command"
	s.Description = "One element of the command list sent every tick"
	return s
}

// Validator checks raw inbound frames against BatchSchema before decoding.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	data, err := json.Marshal(BatchSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(batchSchemaURL, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := c.Compile(batchSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: s}, nil
}

func (v *Validator) Validate(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &RejectError{Code: ErrProtoBadRequest, Message: err.Error()}
	}
	if err := v.schema.Validate(doc); err != nil {
		return &RejectError{Code: ErrProtoSchema, Message: err.Error()}
	}
	return nil
}
