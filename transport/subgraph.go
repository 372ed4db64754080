package transport

import (
	"fmt"

	"github.com/golangid/meshserve/candihelper"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// DirectiveTransport schema directive describing how a subgraph is reached
const DirectiveTransport = "transport"

// Entry transport entry of a subgraph
type Entry struct {
	Kind     string
	Location string
	Headers  map[string]string
	Options  map[string]interface{}
}

// Subgraph named schema served by one executor
type Subgraph struct {
	Name      string
	Document  *ast.SchemaDocument
	Transport Entry
}

// LoadSubgraph parse subgraph SDL and read @transport directive from schema definition or extension
func LoadSubgraph(name, sdl string) (*Subgraph, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: sdl})
	if err != nil {
		return nil, fmt.Errorf("subgraph %s: %w", name, err)
	}

	var directive *ast.Directive
	for _, list := range []ast.SchemaDefinitionList{doc.Schema, doc.SchemaExtension} {
		for _, def := range list {
			if d := def.Directives.ForName(DirectiveTransport); d != nil {
				directive = d
			}
		}
	}
	if directive == nil {
		return nil, fmt.Errorf("subgraph %s: missing @%s directive on schema", name, DirectiveTransport)
	}

	entry, subgraphName, err := parseTransportDirective(directive)
	if err != nil {
		return nil, fmt.Errorf("subgraph %s: %w", name, err)
	}
	if name == "" {
		name = subgraphName
	}
	if name == "" {
		return nil, fmt.Errorf("subgraph name is required")
	}
	return &Subgraph{Name: name, Document: doc, Transport: entry}, nil
}

// LoadSubgraphs load every *.graphql file under dir, file name is the subgraph name
func LoadSubgraphs(dir string) ([]*Subgraph, error) {
	files, err := candihelper.LoadFiles(dir, ".graphql")
	if err != nil {
		return nil, err
	}

	mErr := candihelper.NewMultiError()
	var subgraphs []*Subgraph
	for _, name := range candihelper.SortedKeys(files) {
		subgraph, err := LoadSubgraph(name, string(files[name]))
		if err != nil {
			mErr.Append(name, err)
			continue
		}
		subgraphs = append(subgraphs, subgraph)
	}
	if mErr.HasError() {
		return nil, mErr
	}
	return subgraphs, nil
}

func parseTransportDirective(directive *ast.Directive) (entry Entry, subgraph string, err error) {
	args := make(map[string]interface{}, len(directive.Arguments))
	for _, arg := range directive.Arguments {
		if args[arg.Name], err = arg.Value.Value(nil); err != nil {
			return entry, "", fmt.Errorf("@%s(%s): %w", DirectiveTransport, arg.Name, err)
		}
	}

	entry.Kind, _ = args["kind"].(string)
	entry.Location, _ = args["location"].(string)
	subgraph, _ = args["subgraph"].(string)
	if entry.Kind == "" {
		return entry, "", fmt.Errorf("@%s: kind is required", DirectiveTransport)
	}

	switch headers := args["headers"].(type) {
	case map[string]interface{}:
		entry.Headers = make(map[string]string, len(headers))
		for k, v := range headers {
			entry.Headers[k] = fmt.Sprint(v)
		}
	case []interface{}:
		// list of [name, value] pairs
		entry.Headers = make(map[string]string, len(headers))
		for _, h := range headers {
			pair, ok := h.([]interface{})
			if !ok || len(pair) != 2 {
				return entry, "", fmt.Errorf("@%s: header must be [name, value] pair", DirectiveTransport)
			}
			entry.Headers[fmt.Sprint(pair[0])] = fmt.Sprint(pair[1])
		}
	}

	if options, ok := args["options"].(map[string]interface{}); ok {
		entry.Options = options
	}
	return entry, subgraph, nil
}
