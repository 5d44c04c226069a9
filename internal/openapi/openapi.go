// ==============================================================================================
// FILE: internal/openapi/openapi.go
// ==============================================================================================
// PACKAGE: openapi
// PURPOSE: Assembles the OpenAPI 3.0 JSON artifact from a compiled
//          program's API routes (spec.md §6, supplemented per
//          SPEC_FULL.md §4 "OpenAPI emission detail"). Builds the schema
//          tree by hand from internal/types.Type rather than reflecting
//          over Go structs — invopop/jsonschema has nothing to attach to
//          since Manaknight's own type IR isn't a Go type (see
//          DESIGN.md's dropped-dependency entry).
// ==============================================================================================

package openapi

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/manaknight/mkc/internal/ast"
	"github.com/manaknight/mkc/internal/checker"
	"github.com/manaknight/mkc/internal/config"
	"github.com/manaknight/mkc/internal/resolver"
	"github.com/manaknight/mkc/internal/types"
)

// Document is the root OpenAPI 3.0 object, kept deliberately small: just
// enough structure for spec.md §6's documented contract plus the
// parameter/request-body detail SPEC_FULL.md §4 supplements.
type Document struct {
	OpenAPI string                `json:"openapi"`
	Info    Info                  `json:"info"`
	Paths   map[string]PathItem   `json:"paths"`
}

type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// PathItem maps an HTTP method (lowercased) to its Operation.
type PathItem map[string]Operation

type Operation struct {
	OperationID string              `json:"operationId,omitempty"`
	Parameters  []Parameter         `json:"parameters,omitempty"`
	RequestBody *RequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]Response `json:"responses"`
}

type Parameter struct {
	Name     string `json:"name"`
	In       string `json:"in"`
	Required bool   `json:"required"`
	Schema   Schema `json:"schema"`
}

type RequestBody struct {
	Required bool                 `json:"required"`
	Content  map[string]MediaType `json:"content"`
}

type MediaType struct {
	Schema Schema `json:"schema"`
}

type Response struct {
	Description string               `json:"description"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

// Schema is a minimal JSON Schema node: exactly the shape a route's
// return type and parameter types need (spec.md §6 only promises the
// path/method/200/JSON-schema level of detail).
type Schema struct {
	Type       string            `json:"type,omitempty"`
	Items      *Schema           `json:"items,omitempty"`
	Properties map[string]Schema `json:"properties,omitempty"`
	Required   []string          `json:"required,omitempty"`
}

// Build assembles a Document from every route graph resolved, using chk
// for parameter/return type resolution and cfg for the info block.
func Build(graph *resolver.Graph, chk checker.Result, cfg config.OpenAPIInfo) Document {
	doc := Document{
		OpenAPI: "3.0.0",
		Info:    Info{Title: cfg.Title, Version: cfg.Version},
		Paths:   map[string]PathItem{},
	}

	for _, r := range graph.AllRoutes() {
		item, ok := doc.Paths[r.Path]
		if !ok {
			item = PathItem{}
		}
		item[strings.ToLower(r.Method)] = buildOperation(r, chk)
		doc.Paths[r.Path] = item
	}
	return doc
}

// Marshal renders doc as indented JSON, matching spec.md §9's
// deterministic-output requirement (map keys are already sorted by
// encoding/json's own stable object-key ordering for our map types, since
// Go's json package sorts map keys alphabetically on encode).
func Marshal(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func buildOperation(r *ast.APIRoute, chk checker.Result) Operation {
	pathNames := map[string]bool{}
	for _, seg := range r.Segments {
		if seg.Placeholder != "" {
			pathNames[seg.Placeholder] = true
		}
	}

	op := Operation{
		OperationID: operationID(r),
		Responses: map[string]Response{
			"200": {
				Description: "OK",
				Content: map[string]MediaType{
					"application/json": {Schema: schemaFor(syntacticType(r.ReturnType, chk))},
				},
			},
		},
	}

	var bodyProps map[string]Schema
	var bodyRequired []string
	for _, p := range r.Params {
		t := schemaFor(paramType(p, chk))
		if pathNames[p.Name] {
			op.Parameters = append(op.Parameters, Parameter{
				Name: p.Name, In: "path", Required: true, Schema: t,
			})
			continue
		}
		if bodyProps == nil {
			bodyProps = map[string]Schema{}
		}
		bodyProps[p.Name] = t
		bodyRequired = append(bodyRequired, p.Name)
	}
	sort.Strings(bodyRequired)
	if bodyProps != nil {
		op.RequestBody = &RequestBody{
			Required: true,
			Content: map[string]MediaType{
				"application/json": {Schema: Schema{Type: "object", Properties: bodyProps, Required: bodyRequired}},
			},
		}
	}
	return op
}

// operationID produces a stable identifier for tooling that generates
// client bindings from the document; it is not part of spec.md's
// documented contract but is standard OpenAPI practice.
func operationID(r *ast.APIRoute) string {
	slug := strings.Map(func(ch rune) rune {
		if ch == '/' || ch == ':' {
			return '_'
		}
		return ch
	}, strings.TrimPrefix(r.Path, "/"))
	return fmt.Sprintf("%s_%s", strings.ToLower(r.Method), slug)
}

// paramType translates a route parameter's syntactic type with
// syntacticType (route parameter types aren't expressions, so they have
// no entry of their own in chk.Types).
func paramType(p ast.Param, chk checker.Result) types.Type {
	return syntacticType(p.Type, chk)
}

// syntacticType maps an ast.Type straight onto types without going
// through the checker's generic-substitution machinery — route signatures
// are always fully concrete (spec.md §4.2 gives API routes no type
// parameters), so a direct structural translation is exact.
func syntacticType(t ast.Type, chk checker.Result) types.Type {
	switch n := t.(type) {
	case *ast.PrimitiveType:
		switch n.Kind {
		case ast.PrimInt:
			return types.Int
		case ast.PrimBool:
			return types.Bool
		case ast.PrimString:
			return types.String
		default:
			return types.Unit
		}
	case *ast.NamedType:
		args := make([]types.Type, len(n.Args))
		for i, a := range n.Args {
			args[i] = syntacticType(a, chk)
		}
		return &types.Named{Name: n.Name, Args: args}
	default:
		return types.Unit
	}
}

// schemaFor maps a resolved Manaknight type onto the JSON Schema subset
// spec.md §6 needs: primitives map directly, List<T> becomes an array
// schema, and every other named type (records, unions, Option, Result,
// Map) becomes an opaque object schema, since Manaknight's own type IR
// carries no public field layout for the emitter to walk further without
// the declaring internal/ast.TypeDecl in hand.
func schemaFor(t types.Type) Schema {
	if t == nil {
		return Schema{Type: "object"}
	}
	switch n := t.(type) {
	case *types.Primitive:
		switch n.Kind {
		case "Int":
			return Schema{Type: "integer"}
		case "Bool":
			return Schema{Type: "boolean"}
		case "String":
			return Schema{Type: "string"}
		default:
			return Schema{Type: "object"}
		}
	case *types.Named:
		if n.Name == "List" && len(n.Args) == 1 {
			item := schemaFor(n.Args[0])
			return Schema{Type: "array", Items: &item}
		}
		return Schema{Type: "object"}
	default:
		return Schema{Type: "object"}
	}
}
