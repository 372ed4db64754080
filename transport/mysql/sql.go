package mysql

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
)

func (r *resolver) query(builder sq.Sqlizer) ([]map[string]interface{}, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	r.executor.logger.Debug(query)

	rows, err := r.executor.db.ReadDB().QueryContext(r.ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		dest := make([]interface{}, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				row[column] = string(b)
				continue
			}
			row[column] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *resolver) exec(builder sq.Sqlizer) (sql.Result, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	r.executor.logger.Debug(query)
	return r.executor.db.WriteDB().ExecContext(r.ctx, query, args...)
}

// coerceScalar convert driver value to the representation of GraphQL scalar type
func coerceScalar(typeName string, value interface{}) interface{} {
	if value == nil {
		return nil
	}

	switch typeName {
	case "Int":
		switch v := value.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case int32:
			return int64(v)
		case uint64:
			if v > math.MaxInt64 {
				return v
			}
			return int64(v)
		case float64:
			return int64(v)
		case bool:
			if v {
				return int64(1)
			}
			return int64(0)
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n
			}
			if n, err := strconv.ParseUint(v, 10, 64); err == nil {
				return n
			}
		}

	case "Float":
		switch v := value.(type) {
		case float64:
			return v
		case float32:
			return float64(v)
		case int64:
			return float64(v)
		case int:
			return float64(v)
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}

	case "Boolean":
		switch v := value.(type) {
		case bool:
			return v
		case int64:
			return v != 0
		case int:
			return v != 0
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
		}

	case "String", "ID":
		switch v := value.(type) {
		case string:
			return v
		case time.Time:
			return v.Format(time.RFC3339)
		default:
			return fmt.Sprint(v)
		}
	}

	if t, ok := value.(time.Time); ok {
		return t.Format(time.RFC3339)
	}
	return value
}
