package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/forgo/finance-fixtures/internal/database"
	"github.com/forgo/finance-fixtures/internal/money"
)

// convertSurrealID converts a SurrealDB record ID to its "table:id" string form
func convertSurrealID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%s:%v", v.Table, v.ID)
		}
		return ""
	case map[string]interface{}:
		// {"tb": "user", "id": "xxx"} or {"Table": ..., "ID": ...}
		if tb, ok := v["tb"].(string); ok {
			if idVal, ok := v["id"]; ok {
				return fmt.Sprintf("%s:%v", tb, idVal)
			}
		}
		if tb, ok := v["Table"].(string); ok {
			if idVal, ok := v["ID"]; ok {
				return fmt.Sprintf("%s:%v", tb, idVal)
			}
		}
	}
	return fmt.Sprintf("%v", id)
}

// normalizeValue rewrites SurrealDB client types into JSON-friendly values
func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case models.RecordID, *models.RecordID:
		return convertSurrealID(t)
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t == nil {
			return nil
		}
		return t.Time
	case map[string]interface{}:
		if _, isRecord := t["tb"]; isRecord && len(t) == 2 {
			return convertSurrealID(t)
		}
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalizeValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeValue(val)
		}
		return out
	}
	return v
}

// decodeRecord converts one result record into T via a JSON round trip
func decodeRecord[T any](data interface{}) (*T, error) {
	m, ok := data.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}

	jsonBytes, err := json.Marshal(normalizeValue(m))
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(jsonBytes, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// decodeOne unwraps the first record of a query and decodes it
func decodeOne[T any](results []interface{}) (*T, error) {
	rec, err := database.FirstRecord(results)
	if err != nil {
		return nil, err
	}
	return decodeRecord[T](rec)
}

// decodeAll decodes every record of the first statement's result
func decodeAll[T any](results []interface{}) ([]*T, error) {
	out := make([]*T, 0)
	rows, ok := extractQueryResults(results)
	if !ok {
		return out, nil
	}
	for _, row := range rows {
		rec, err := decodeRecord[T](row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// extractQueryResults extracts the result array of the first statement
func extractQueryResults(results []interface{}) ([]interface{}, bool) {
	if len(results) == 0 {
		return nil, false
	}
	if first, ok := results[0].(map[string]interface{}); ok {
		if rows, ok := first["result"].([]interface{}); ok {
			return rows, true
		}
		return nil, false
	}
	// Direct array format
	return results, true
}

// createdRecord holds the server-assigned fields of a CREATE result
type createdRecord struct {
	ID        string
	CreatedOn time.Time
}

// extractCreatedRecord reads id and created_on from a CREATE result
func extractCreatedRecord(results []interface{}) (*createdRecord, error) {
	rec, err := database.FirstRecord(results)
	if err != nil {
		return nil, fmt.Errorf("no result returned: %w", err)
	}
	data, ok := rec.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}

	record := &createdRecord{}
	if id, ok := data["id"]; ok {
		record.ID = convertSurrealID(id)
	}
	record.CreatedOn = parseTime(data["created_on"])
	return record, nil
}

// parseTime parses time from the formats SurrealDB returns
func parseTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t != nil {
			return t.Time
		}
	}
	return time.Time{}
}

// amountVar renders an amount for a <decimal> cast
func amountVar(d decimal.Decimal) string {
	return money.Format(d)
}

// timeVar renders a time for a <datetime> cast
func timeVar(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// optionalTime returns nil for a nil pointer so SurrealDB stores NONE
func optionalTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return timeVar(*t)
}

// zeroableTime returns nil for the zero time
func zeroableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return timeVar(t)
}

// nilIfEmpty maps empty strings to NONE
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// wrapNotFound adds the looked-up record to ErrNotFound
func wrapNotFound(err error, table, id string) error {
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", database.ErrNotFound, table, id)
	}
	return err
}
