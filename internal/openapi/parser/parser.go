package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	pkgopenapi "github.com/goliatone/go-formmanager/pkg/openapi"
)

// Parser implements pkgopenapi.Parser using kin-openapi.
type Parser struct {
	options pkgopenapi.ParserOptions
}

var _ pkgopenapi.Parser = (*Parser)(nil)

// New constructs a Parser with the given options.
func New(options pkgopenapi.ParserOptions) pkgopenapi.Parser {
	return &Parser{options: options}
}

// Operations converts a Document into a map keyed by operationId. Operations
// without an id are keyed by "<method>:<path>".
func (p *Parser) Operations(ctx context.Context, doc pkgopenapi.Document) (map[string]pkgopenapi.Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("openapi parser: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: p.options.ResolveReferences,
	}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return nil, errors.New("openapi parser: document does not contain any paths")
	}
	if p.options.ResolveReferences {
		if err := spec.Validate(ctx,
			openapi3.DisableExamplesValidation(),
			openapi3.DisableSchemaFormatValidation(),
		); err != nil {
			return nil, fmt.Errorf("openapi parser: validate: %w", err)
		}
	}

	operations := make(map[string]pkgopenapi.Operation)
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, operation := range item.Operations() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			collectOperation(operations, method, path, operation)
		}
	}
	if len(operations) == 0 {
		return nil, errors.New("openapi parser: no operations extracted")
	}
	return operations, nil
}

func collectOperation(target map[string]pkgopenapi.Operation, method, path string, operation *openapi3.Operation) {
	if operation == nil {
		return
	}
	opID := operation.OperationID
	if opID == "" {
		opID = strings.ToLower(method) + ":" + path
	}

	op, err := pkgopenapi.NewOperation(opID, method, path, pkgopenapi.Schema{})
	if err != nil {
		return
	}
	op.Summary = operation.Summary
	op.Description = operation.Description
	op.MediaType, op.Request, op.Encoding = extractFormBody(operation.RequestBody)
	target[opID] = op
}

func extractFormBody(body *openapi3.RequestBodyRef) (string, pkgopenapi.Schema, map[string]string) {
	if body == nil || body.Value == nil {
		return "", pkgopenapi.Schema{}, nil
	}
	for _, mediaType := range []string{pkgopenapi.MediaTypeMultipart, pkgopenapi.MediaTypeURLEncoded} {
		mt, ok := body.Value.Content[mediaType]
		if !ok || mt == nil {
			continue
		}
		var encoding map[string]string
		for name, enc := range mt.Encoding {
			if enc == nil || enc.ContentType == "" {
				continue
			}
			if encoding == nil {
				encoding = make(map[string]string, len(mt.Encoding))
			}
			encoding[name] = enc.ContentType
		}
		return mediaType, convertSchema(mt.Schema, map[*openapi3.Schema]bool{}), encoding
	}
	return "", pkgopenapi.Schema{}, nil
}

// convertSchema flattens a kin-openapi schema. Recursive references are cut
// at the first repeat and only keep their $ref.
func convertSchema(ref *openapi3.SchemaRef, seen map[*openapi3.Schema]bool) pkgopenapi.Schema {
	if ref == nil {
		return pkgopenapi.Schema{}
	}
	if ref.Value == nil || seen[ref.Value] {
		return pkgopenapi.Schema{Ref: ref.Ref}
	}
	seen[ref.Value] = true
	defer delete(seen, ref.Value)

	src := ref.Value
	schema := pkgopenapi.Schema{
		Ref:         ref.Ref,
		Type:        firstSchemaType(src.Type),
		Format:      src.Format,
		Title:       src.Title,
		Description: src.Description,
		Default:     src.Default,
	}
	if len(src.Required) > 0 {
		schema.Required = append([]string(nil), src.Required...)
	}
	if len(src.Enum) > 0 {
		schema.Enum = append([]any(nil), src.Enum...)
	}
	if len(src.Properties) > 0 {
		schema.Properties = make(map[string]pkgopenapi.Schema, len(src.Properties))
		for name, property := range src.Properties {
			schema.Properties[name] = convertSchema(property, seen)
		}
	}
	if src.Items != nil {
		items := convertSchema(src.Items, seen)
		schema.Items = &items
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		schema.MaxLength = &value
	}
	schema.Extensions = extractExtensions(src.Extensions)
	mergeAllOf(&schema, src.AllOf, seen)
	return schema
}

func mergeAllOf(target *pkgopenapi.Schema, refs openapi3.SchemaRefs, seen map[*openapi3.Schema]bool) {
	for _, ref := range refs {
		part := convertSchema(ref, seen)
		if target.Type == "" {
			target.Type = part.Type
		}
		if target.Format == "" {
			target.Format = part.Format
		}
		target.Required = append(target.Required, part.Required...)
		if len(part.Properties) > 0 && target.Properties == nil {
			target.Properties = make(map[string]pkgopenapi.Schema, len(part.Properties))
		}
		for name, prop := range part.Properties {
			if _, exists := target.Properties[name]; !exists {
				target.Properties[name] = prop
			}
		}
		for key, value := range part.Extensions {
			if target.Extensions == nil {
				target.Extensions = make(map[string]any, len(part.Extensions))
			}
			if _, exists := target.Extensions[key]; !exists {
				target.Extensions[key] = value
			}
		}
	}
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		return strings.Join(values, ",")
	}
}

func extractExtensions(raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	result := make(map[string]any, len(raw))
	for key, value := range raw {
		if strings.HasPrefix(key, "x-") && value != nil {
			result[key] = value
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
