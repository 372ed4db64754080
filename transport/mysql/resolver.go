package mysql

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/golangid/meshserve/candihelper"
	"github.com/vektah/gqlparser/v2/ast"
)

type resolver struct {
	executor *executor
	ctx      context.Context
	doc      *ast.QueryDocument
	vars     map[string]interface{}
}

// collectFields flatten fragments and merge fields with same response key, in document order
func (r *resolver) collectFields(set ast.SelectionSet) ([]*ast.Field, error) {
	var fields []*ast.Field
	index := make(map[string]int)
	visited := make(map[string]bool)

	var walk func(ast.SelectionSet) error
	walk = func(set ast.SelectionSet) error {
		for _, sel := range set {
			switch s := sel.(type) {
			case *ast.Field:
				include, err := r.included(s.Directives)
				if err != nil {
					return err
				}
				if !include {
					continue
				}
				if i, ok := index[s.Alias]; ok {
					merged := *fields[i]
					merged.SelectionSet = append(append(ast.SelectionSet{}, merged.SelectionSet...), s.SelectionSet...)
					fields[i] = &merged
					continue
				}
				index[s.Alias] = len(fields)
				fields = append(fields, s)

			case *ast.InlineFragment:
				include, err := r.included(s.Directives)
				if err != nil {
					return err
				}
				if include {
					if err := walk(s.SelectionSet); err != nil {
						return err
					}
				}

			case *ast.FragmentSpread:
				include, err := r.included(s.Directives)
				if err != nil {
					return err
				}
				if !include || visited[s.Name] {
					continue
				}
				fragment := r.doc.Fragments.ForName(s.Name)
				if fragment == nil {
					return fmt.Errorf("unknown fragment %q", s.Name)
				}
				visited[s.Name] = true
				if err := walk(fragment.SelectionSet); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return fields, walk(set)
}

// included evaluate @skip and @include
func (r *resolver) included(directives ast.DirectiveList) (bool, error) {
	for _, name := range []string{"skip", "include"} {
		d := directives.ForName(name)
		if d == nil {
			continue
		}
		arg := d.Arguments.ForName("if")
		if arg == nil {
			return false, fmt.Errorf("@%s requires argument if", name)
		}
		v, err := arg.Value.Value(r.vars)
		if err != nil {
			return false, err
		}
		cond, _ := v.(bool)
		if (name == "skip") == cond {
			return false, nil
		}
	}
	return true, nil
}

func (r *resolver) arguments(field *ast.Field) (map[string]interface{}, error) {
	args := make(map[string]interface{}, len(field.Arguments))
	for _, arg := range field.Arguments {
		v, err := arg.Value.Value(r.vars)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", arg.Name, err)
		}
		args[arg.Name] = v
	}
	return args, nil
}

func (r *resolver) resolveRoot(rootType string, field *ast.Field) (interface{}, error) {
	binding := r.executor.bindings.rootField(rootType, field.Name)
	if binding == nil {
		return nil, fmt.Errorf("field %s.%s is not bound to a mysql table", rootType, field.Name)
	}
	args, err := r.arguments(field)
	if err != nil {
		return nil, err
	}

	switch binding.kind {
	case opCount:
		return r.count(binding, args)
	case opInsert:
		return r.insert(binding, field, args)
	case opUpdate:
		return r.update(binding, field, args)
	case opDelete:
		return r.delete(binding, args)
	default:
		return r.selectRows(binding.table, binding.columnMap, binding.field.Type, field, args, nil)
	}
}

// selectRows query table and shape rows by field selection, list or single object follow fieldType
func (r *resolver) selectRows(table string, columnMap map[string]string, fieldType *ast.Type, field *ast.Field, args map[string]interface{}, scope sq.Eq) (interface{}, error) {
	typeName := fieldType.Name()
	subfields, err := r.collectFields(field.SelectionSet)
	if err != nil {
		return nil, err
	}

	query := sq.Select(r.projection(typeName, columnMap, subfields)...).From(quoteIdentifier(table))

	where, err := whereClause(args["where"], columnMap)
	if err != nil {
		return nil, err
	}
	for k, v := range scope {
		where[k] = v
	}
	if len(where) > 0 {
		query = query.Where(where)
	}

	orderBy, err := r.orderBy(field, args["orderBy"], columnMap)
	if err != nil {
		return nil, err
	}
	query = query.OrderBy(orderBy...)

	isList := fieldType.Elem != nil
	if limit, ok, err := unsignedArg(args, "limit"); err != nil {
		return nil, err
	} else if ok {
		query = query.Limit(limit)
	} else if !isList {
		query = query.Limit(1)
	}
	if offset, ok, err := unsignedArg(args, "offset"); err != nil {
		return nil, err
	} else if ok {
		query = query.Offset(offset)
	}

	rows, err := r.query(query)
	if err != nil {
		return nil, err
	}

	if !isList {
		if len(rows) == 0 {
			return nil, nil
		}
		return r.shape(typeName, columnMap, subfields, rows[0])
	}
	list := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		obj, err := r.shape(typeName, columnMap, subfields, row)
		if err != nil {
			return nil, err
		}
		list = append(list, obj)
	}
	return list, nil
}

func (r *resolver) projection(typeName string, columnMap map[string]string, subfields []*ast.Field) []string {
	seen := make(map[string]bool)
	var columns []string
	add := func(column string) {
		if !seen[column] {
			seen[column] = true
			columns = append(columns, quoteIdentifier(column))
		}
	}
	for _, sf := range subfields {
		if sf.Name == "__typename" {
			continue
		}
		if fb := r.executor.bindings.foreignField(typeName, sf.Name); fb != nil {
			add(fb.columnName)
			continue
		}
		add(columnFor(columnMap, sf.Name))
	}
	if len(columns) == 0 {
		return []string{"1"}
	}
	return columns
}

func (r *resolver) shape(typeName string, columnMap map[string]string, subfields []*ast.Field, row map[string]interface{}) (map[string]interface{}, error) {
	obj := make(map[string]interface{}, len(subfields))
	for _, sf := range subfields {
		if sf.Name == "__typename" {
			obj[sf.Alias] = typeName
			continue
		}

		if fb := r.executor.bindings.foreignField(typeName, sf.Name); fb != nil {
			// null join column matches no foreign row
			if row[fb.columnName] == nil {
				if fb.field.Type.Elem != nil {
					obj[sf.Alias] = []interface{}{}
				} else {
					obj[sf.Alias] = nil
				}
				continue
			}
			args, err := r.arguments(sf)
			if err != nil {
				return nil, err
			}
			nested, err := r.selectRows(fb.foreignTable, nil, fb.field.Type, sf, args,
				sq.Eq{quoteIdentifier(fb.foreignColumn): row[fb.columnName]})
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", typeName, sf.Name, err)
			}
			obj[sf.Alias] = nested
			continue
		}

		def := r.executor.bindings.field(typeName, sf.Name)
		if def == nil {
			return nil, fmt.Errorf("cannot query field %q on type %q", sf.Name, typeName)
		}
		obj[sf.Alias] = coerceScalar(def.Type.Name(), row[columnFor(columnMap, sf.Name)])
	}
	return obj, nil
}

func (r *resolver) count(binding *rootBinding, args map[string]interface{}) (interface{}, error) {
	query := sq.Select("COUNT(*)").From(quoteIdentifier(binding.table))
	where, err := whereClause(args["where"], binding.columnMap)
	if err != nil {
		return nil, err
	}
	if len(where) > 0 {
		query = query.Where(where)
	}

	rows, err := r.query(query)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return int64(0), nil
	}
	return coerceScalar("Int", rows[0]["COUNT(*)"]), nil
}

func (r *resolver) insert(binding *rootBinding, field *ast.Field, args map[string]interface{}) (interface{}, error) {
	input, err := inputObject(args, binding.table)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(input))
	values := make([]interface{}, 0, len(input))
	for _, k := range candihelper.SortedKeys(input) {
		columns = append(columns, quoteIdentifier(columnFor(binding.columnMap, k)))
		values = append(values, input[k])
	}
	res, err := r.exec(sq.Insert(quoteIdentifier(binding.table)).Columns(columns...).Values(values...))
	if err != nil {
		return nil, err
	}

	var value interface{}
	primary := sq.Eq{}
	for _, pk := range binding.primaryKeys {
		if v, ok := input[pk]; ok {
			primary[quoteIdentifier(columnFor(binding.columnMap, pk))] = v
		}
	}
	if len(binding.primaryKeys) == 1 && len(primary) == 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		primary[quoteIdentifier(columnFor(binding.columnMap, binding.primaryKeys[0]))] = id
	}

	if len(binding.primaryKeys) > 0 && len(primary) == len(binding.primaryKeys) {
		if value, err = r.selectRows(binding.table, binding.columnMap, binding.field.Type, field, nil, primary); err != nil {
			return nil, err
		}
	} else {
		subfields, err := r.collectFields(field.SelectionSet)
		if err != nil {
			return nil, err
		}
		if value, err = r.shape(binding.field.Type.Name(), nil, subfields, input); err != nil {
			return nil, err
		}
	}

	r.executor.publish(r.ctx, binding.table, "insert", value)
	return value, nil
}

func (r *resolver) update(binding *rootBinding, field *ast.Field, args map[string]interface{}) (interface{}, error) {
	input, err := inputObject(args, binding.table)
	if err != nil {
		return nil, err
	}
	where, err := whereClause(args["where"], binding.columnMap)
	if err != nil {
		return nil, err
	}

	set := make(map[string]interface{}, len(input))
	for k, v := range input {
		set[quoteIdentifier(columnFor(binding.columnMap, k))] = v
	}
	query := sq.Update(quoteIdentifier(binding.table)).SetMap(set)
	if len(where) > 0 {
		query = query.Where(where)
	}
	res, err := r.exec(query)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}

	// updated columns used in where are matched with the new value
	for k := range where {
		if v, ok := set[k]; ok {
			where[k] = v
		}
	}
	value, err := r.selectRows(binding.table, binding.columnMap, binding.field.Type, field, nil, where)
	if err != nil {
		return nil, err
	}

	r.executor.publish(r.ctx, binding.table, "update", value)
	return value, nil
}

func (r *resolver) delete(binding *rootBinding, args map[string]interface{}) (interface{}, error) {
	where, err := whereClause(args["where"], binding.columnMap)
	if err != nil {
		return nil, err
	}
	query := sq.Delete(quoteIdentifier(binding.table))
	if len(where) > 0 {
		query = query.Where(where)
	}

	res, err := r.exec(query)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	deleted := affected > 0
	if deleted {
		r.executor.publish(r.ctx, binding.table, "delete", args["where"])
	}
	return deleted, nil
}

// orderBy keep literal object order, object from variable is ordered by column name
func (r *resolver) orderBy(field *ast.Field, value interface{}, columnMap map[string]string) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("orderBy must be an object")
	}

	var keys []string
	if arg := field.Arguments.ForName("orderBy"); arg != nil && arg.Value.Kind == ast.ObjectValue {
		for _, child := range arg.Value.Children {
			keys = append(keys, child.Name)
		}
	} else {
		keys = candihelper.SortedKeys(obj)
	}

	clauses := make([]string, 0, len(keys))
	for _, k := range keys {
		if obj[k] == nil {
			continue
		}
		direction := strings.ToUpper(fmt.Sprint(obj[k]))
		if direction != "ASC" && direction != "DESC" {
			return nil, fmt.Errorf("orderBy %s: invalid direction %v", k, obj[k])
		}
		clauses = append(clauses, quoteIdentifier(columnFor(columnMap, k))+" "+direction)
	}
	return clauses, nil
}

func whereClause(value interface{}, columnMap map[string]string) (sq.Eq, error) {
	where := sq.Eq{}
	if value == nil {
		return where, nil
	}
	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("where must be an object")
	}
	for k, v := range obj {
		where[quoteIdentifier(columnFor(columnMap, k))] = v
	}
	return where, nil
}

// inputObject return argument named after table, or the only object argument
func inputObject(args map[string]interface{}, table string) (map[string]interface{}, error) {
	if input, ok := args[table].(map[string]interface{}); ok {
		return input, nil
	}
	var found map[string]interface{}
	for name, v := range args {
		if obj, ok := v.(map[string]interface{}); ok && name != "where" {
			if found != nil {
				return nil, fmt.Errorf("argument %s is required", table)
			}
			found = obj
		}
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("argument %s is required", table)
	}
	return found, nil
}

func unsignedArg(args map[string]interface{}, name string) (uint64, bool, error) {
	var n int64
	switch v := args[name].(type) {
	case nil:
		return 0, false, nil
	case int64:
		n = v
	case int:
		n = int64(v)
	case float64:
		n = int64(v)
		if float64(n) != v {
			return 0, false, fmt.Errorf("%s must be an integer", name)
		}
	default:
		return 0, false, fmt.Errorf("%s must be an integer", name)
	}
	if n < 0 {
		return 0, false, fmt.Errorf("%s must not be negative", name)
	}
	return uint64(n), true, nil
}

func columnFor(columnMap map[string]string, field string) string {
	if column, ok := columnMap[field]; ok {
		return column
	}
	return field
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
