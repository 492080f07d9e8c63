package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Result is the generic usecase return envelope.
type Result struct {
	Data  interface{}
	Error error
}

// ConvertString marshals any value for log metadata.
func ConvertString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%+v", v)
		}
		return string(data)
	}
}

func ConvertInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
