package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

func jsonValue(v any, isNil bool) (driver.Value, error) {
	if isNil {
		return nil, nil
	}
	return json.Marshal(v)
}

func jsonScan(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dst)
	}
}
