package mysql

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
)

const (
	directiveSelect       = "mysqlSelect"
	directiveCount        = "mysqlCount"
	directiveInsert       = "mysqlInsert"
	directiveUpdate       = "mysqlUpdate"
	directiveDelete       = "mysqlDelete"
	directiveTableForeign = "mysqlTableForeign"
)

type operationKind int

const (
	opSelect operationKind = iota
	opCount
	opInsert
	opUpdate
	opDelete
)

var operationDirectives = map[string]operationKind{
	directiveSelect: opSelect,
	directiveCount:  opCount,
	directiveInsert: opInsert,
	directiveUpdate: opUpdate,
	directiveDelete: opDelete,
}

// rootBinding root field backed by a table operation
type rootBinding struct {
	kind        operationKind
	table       string
	columnMap   map[string]string
	primaryKeys []string
	field       *ast.FieldDefinition
}

// foreignBinding object field resolved from another table by column equality
type foreignBinding struct {
	columnName    string
	foreignTable  string
	foreignColumn string
	field         *ast.FieldDefinition
}

type schemaBindings struct {
	queryType    string
	mutationType string
	fields       map[string]ast.FieldList
	root         map[string]map[string]*rootBinding
	foreign      map[string]map[string]*foreignBinding
}

func compileBindings(doc *ast.SchemaDocument) (*schemaBindings, error) {
	b := &schemaBindings{
		queryType:    "Query",
		mutationType: "Mutation",
		fields:       make(map[string]ast.FieldList),
		root:         make(map[string]map[string]*rootBinding),
		foreign:      make(map[string]map[string]*foreignBinding),
	}
	if doc == nil {
		return nil, errors.New("schema document is required")
	}
	for _, list := range []ast.SchemaDefinitionList{doc.Schema, doc.SchemaExtension} {
		for _, def := range list {
			for _, op := range def.OperationTypes {
				switch op.Operation {
				case ast.Query:
					b.queryType = op.Type
				case ast.Mutation:
					b.mutationType = op.Type
				}
			}
		}
	}

	definitions := append(append(ast.DefinitionList{}, doc.Definitions...), doc.Extensions...)
	for _, def := range definitions {
		if def.Kind != ast.Object && def.Kind != ast.Interface {
			continue
		}
		b.fields[def.Name] = append(b.fields[def.Name], def.Fields...)

		for _, field := range def.Fields {
			if err := b.bindField(def.Name, field); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", def.Name, field.Name, err)
			}
		}
	}
	return b, nil
}

func (b *schemaBindings) bindField(typeName string, field *ast.FieldDefinition) error {
	for _, directive := range field.Directives {
		args, err := directiveArguments(directive)
		if err != nil {
			return err
		}

		if directive.Name == directiveTableForeign {
			fb := &foreignBinding{field: field}
			fb.columnName, _ = args["columnName"].(string)
			fb.foreignTable, _ = args["foreignTableName"].(string)
			fb.foreignColumn, _ = args["foreignColumnName"].(string)
			if fb.columnName == "" || fb.foreignTable == "" || fb.foreignColumn == "" {
				return fmt.Errorf("@%s requires columnName, foreignTableName and foreignColumnName", directiveTableForeign)
			}
			if b.foreign[typeName] == nil {
				b.foreign[typeName] = make(map[string]*foreignBinding)
			}
			b.foreign[typeName][field.Name] = fb
			continue
		}

		kind, ok := operationDirectives[directive.Name]
		if !ok {
			continue
		}
		rb := &rootBinding{kind: kind, field: field}
		rb.table, _ = args["table"].(string)
		if rb.table == "" {
			return fmt.Errorf("@%s requires table", directive.Name)
		}
		if rb.columnMap, err = pairMap(args["columnMap"]); err != nil {
			return fmt.Errorf("@%s(columnMap): %w", directive.Name, err)
		}
		if keys, ok := args["primaryKeys"].([]interface{}); ok {
			for _, k := range keys {
				rb.primaryKeys = append(rb.primaryKeys, fmt.Sprint(k))
			}
		}
		if b.root[typeName] == nil {
			b.root[typeName] = make(map[string]*rootBinding)
		}
		b.root[typeName][field.Name] = rb
	}
	return nil
}

func (b *schemaBindings) rootField(typeName, fieldName string) *rootBinding {
	return b.root[typeName][fieldName]
}

func (b *schemaBindings) foreignField(typeName, fieldName string) *foreignBinding {
	return b.foreign[typeName][fieldName]
}

func (b *schemaBindings) field(typeName, fieldName string) *ast.FieldDefinition {
	return b.fields[typeName].ForName(fieldName)
}

func directiveArguments(directive *ast.Directive) (map[string]interface{}, error) {
	args := make(map[string]interface{}, len(directive.Arguments))
	for _, arg := range directive.Arguments {
		v, err := arg.Value.Value(nil)
		if err != nil {
			return nil, fmt.Errorf("@%s(%s): %w", directive.Name, arg.Name, err)
		}
		args[arg.Name] = v
	}
	return args, nil
}

// pairMap convert list of [graphql field, column] pairs
func pairMap(v interface{}) (map[string]string, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("must be list of [field, column] pairs")
	}
	res := make(map[string]string, len(list))
	for _, item := range list {
		pair, ok := item.([]interface{})
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("must be list of [field, column] pairs")
		}
		res[fmt.Sprint(pair[0])] = fmt.Sprint(pair[1])
	}
	return res, nil
}
