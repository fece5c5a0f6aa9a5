// Package tools holds the demo tools offered to models that support
// function calling, plus the dispatch table that executes their calls.
package tools

import (
	"encoding/json"
	"fmt"

	"anychat-backend/internal/llm"
)

type toolFunc func(input map[string]interface{}) (interface{}, error)

var specs = []llm.ToolSpec{
	{
		Name:        "get_weather",
		Description: "Get weather information for a location",
		Schema: llm.ToolSchema{
			Type: "object",
			Properties: map[string]llm.Property{
				"location": {Type: "string", Description: "The city or location to get weather for"},
				"unit":     {Type: "string", Description: "Temperature unit, either 'C' or 'F'", Enum: []string{"C", "F"}},
			},
			Required: []string{"location"},
		},
	},
	{
		Name:        "divide",
		Description: "Divide two numbers",
		Schema: llm.ToolSchema{
			Type: "object",
			Properties: map[string]llm.Property{
				"dividend": {Type: "number", Description: "The number to be divided"},
				"divisor":  {Type: "number", Description: "The number to divide by"},
			},
			Required: []string{"dividend", "divisor"},
		},
	},
}

var funcs = map[string]toolFunc{
	"get_weather": getWeather,
	"divide":      divide,
}

// Specs returns the tool definitions offered to tool-capable models.
func Specs() []llm.ToolSpec {
	return specs
}

// Execute runs a single tool call and returns its result. Failures are
// reported inside the result content so the model sees them; Execute itself
// never fails.
func Execute(call llm.ToolCall) llm.ToolResult {
	result := llm.ToolResult{CallID: call.ID, Name: call.Name}

	fn, ok := funcs[call.Name]
	if !ok {
		result.IsError = true
		result.Content = errorJSON(fmt.Sprintf("unknown tool: %s", call.Name))
		return result
	}

	value, err := fn(call.Input)
	if err != nil {
		result.IsError = true
		result.Content = errorJSON(err.Error())
		return result
	}

	// Wrap scalars in an object for provider compatibility.
	payload, marshalErr := json.Marshal(map[string]interface{}{"result": value})
	if marshalErr != nil {
		result.IsError = true
		result.Content = errorJSON(marshalErr.Error())
		return result
	}
	result.Content = string(payload)
	return result
}

func getWeather(input map[string]interface{}) (interface{}, error) {
	location, _ := input["location"].(string)
	if location == "" {
		return nil, fmt.Errorf("location is required")
	}
	unit, _ := input["unit"].(string)
	if unit == "" {
		unit = "F"
	}

	// Mock implementation with a canned answer.
	temp := 75
	if unit == "C" {
		temp = 24
	}
	return fmt.Sprintf("Weather in %s is sunny and %d%s!", location, temp, unit), nil
}

func divide(input map[string]interface{}) (interface{}, error) {
	dividend, ok := toFloat(input["dividend"])
	if !ok {
		return nil, fmt.Errorf("dividend must be a number")
	}
	divisor, ok := toFloat(input["divisor"])
	if !ok {
		return nil, fmt.Errorf("divisor must be a number")
	}
	if divisor == 0 {
		return nil, fmt.Errorf("cannot divide by zero")
	}
	return dividend / divisor, nil
}

// toFloat accepts the numeric shapes JSON decoding produces.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func errorJSON(msg string) string {
	payload, _ := json.Marshal(map[string]string{"error": msg})
	return string(payload)
}
