package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// jsonColumnType picks jsonb on postgres and plain text elsewhere (sqlite in tests).
func jsonColumnType(db *gorm.DB) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}

func scanJSON(value interface{}, dst interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, dst)
}

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	*a = JSONBStringArray{}
	if value == nil {
		return nil
	}
	return scanJSON(value, a)
}

// GormDBDataType implements schema.GormDBDataTypeInterface
func (JSONBStringArray) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return jsonColumnType(db)
}

// Dishes is the ordered dish list of a menu, stored as a single JSON column.
type Dishes []Dish

// Value implements the driver.Valuer interface
func (d Dishes) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]Dish(d))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (d *Dishes) Scan(value interface{}) error {
	*d = Dishes{}
	if value == nil {
		return nil
	}
	return scanJSON(value, d)
}

// GormDBDataType implements schema.GormDBDataTypeInterface
func (Dishes) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return jsonColumnType(db)
}
