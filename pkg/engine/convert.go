package engine

import "fmt"

// valueString renders a Step's loosely-typed Value/Params entries as a
// string for comparison/storage. Steps keep these fields as interface{}
// (mirroring the teacher's loosely-typed Fault.Params) so a YAML author
// can write a bare scalar without picking a Go type; the engine is the
// one place that cares about a concrete string.
func valueString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

func paramString(params map[string]interface{}, key string) string {
	v, ok := params[key]
	if !ok {
		return ""
	}
	return valueString(v)
}
