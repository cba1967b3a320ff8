package models

import (
	"encoding/json"
	"fmt"
)

// scanJSON раскладывает JSONB-колонку в dst; NULL оставляет dst нетронутым
func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
