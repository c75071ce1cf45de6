package engine

import (
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
)

// evalScript runs the step's javascript expression with the run context bound
// to $ and returns whatever object $ holds afterwards.
func evalScript(config map[string]any, runData map[string]any) (map[string]any, error) {
	expression, ok := config["expression"].(string)
	if !ok || len(expression) == 0 {
		return nil, fmt.Errorf("script step requires an expression")
	}
	data, err := json.Marshal(runData)
	if err != nil {
		return nil, err
	}
	script := fmt.Sprintf("var $ = %s;\n%s", data, expression)
	vm := goja.New()
	if _, err := vm.RunString(script); err != nil {
		return nil, fmt.Errorf("error executing javascript %w", err)
	}
	val, err := vm.RunString("$")
	if err != nil {
		return nil, fmt.Errorf("error executing javascript %w", err)
	}
	res, err := json.Marshal(val.Export())
	if err != nil {
		return nil, err
	}
	var output map[string]any
	if err := json.Unmarshal(res, &output); err != nil {
		return nil, fmt.Errorf("script must leave $ as an object: %w", err)
	}
	return output, nil
}
