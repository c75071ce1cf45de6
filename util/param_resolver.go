package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oliveagle/jsonpath"
)

var placeholderRe = regexp.MustCompile(`{{(.*?)}}`)

// ResolveStepConfig substitutes {{namespace.field}} placeholders in a step
// configuration with values from the run context. A placeholder that does not
// resolve stays in the output as literal text.
func ResolveStepConfig(runData map[string]any, config map[string]any) map[string]any {
	output := make(map[string]any)
	resolveParams(runData, config, output)
	return output
}

func resolveParams(runData map[string]any, params map[string]any, output map[string]any) {
	for k, v := range params {
		switch v := v.(type) {
		case map[string]any:
			out := make(map[string]any)
			output[k] = out
			resolveParams(runData, v, out)
		case string:
			output[k] = resolveString(runData, v)
		case []any:
			output[k] = resolveList(runData, v)
		default:
			output[k] = v
		}
	}
}

func resolveList(runData map[string]any, list []any) []any {
	output := make([]any, 0, len(list))
	for _, v := range list {
		switch v := v.(type) {
		case map[string]any:
			out := make(map[string]any)
			resolveParams(runData, v, out)
			output = append(output, out)
		case string:
			output = append(output, resolveString(runData, v))
		case []any:
			output = append(output, resolveList(runData, v))
		default:
			output = append(output, v)
		}
	}
	return output
}

func resolveString(runData map[string]any, str string) any {
	tokens := placeholderRe.FindAllStringSubmatch(str, -1)
	if len(tokens) == 0 {
		return str
	}
	// a value that is exactly one placeholder keeps the looked-up type
	if len(tokens) == 1 && strings.TrimSpace(str) == tokens[0][0] {
		value, err := lookup(runData, tokens[0][1])
		if err != nil {
			return str
		}
		return value
	}
	newStr := str
	for _, token := range tokens {
		value, err := lookup(runData, token[1])
		if err != nil {
			continue
		}
		newStr = strings.ReplaceAll(newStr, token[0], fmt.Sprintf("%v", value))
	}
	return newStr
}

func lookup(runData map[string]any, path string) (any, error) {
	path = strings.TrimSpace(path)
	if len(path) == 0 {
		return nil, fmt.Errorf("empty placeholder")
	}
	if !strings.HasPrefix(path, "$") {
		path = "$." + path
	}
	value, err := jsonpath.JsonPathLookup(runData, path)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, fmt.Errorf("no value at %s", path)
	}
	return value, nil
}
