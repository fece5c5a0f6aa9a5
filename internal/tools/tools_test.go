package tools

import (
	"encoding/json"
	"strings"
	"testing"

	"anychat-backend/internal/llm"
)

func TestExecute_GetWeather(t *testing.T) {
	result := Execute(llm.ToolCall{
		ID:    "call-1",
		Name:  "get_weather",
		Input: map[string]interface{}{"location": "San Francisco", "unit": "C"},
	})

	if result.IsError {
		t.Fatalf("Expected success, got error: %s", result.Content)
	}
	if result.CallID != "call-1" {
		t.Errorf("Expected call id 'call-1', got %q", result.CallID)
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(result.Content), &payload); err != nil {
		t.Fatalf("Result content is not valid JSON: %v", err)
	}
	if !strings.Contains(payload["result"], "San Francisco") {
		t.Errorf("Expected location in result, got %q", payload["result"])
	}
	if !strings.Contains(payload["result"], "24C") {
		t.Errorf("Expected celsius temperature in result, got %q", payload["result"])
	}
}

func TestExecute_GetWeather_MissingLocation(t *testing.T) {
	result := Execute(llm.ToolCall{Name: "get_weather", Input: map[string]interface{}{}})
	if !result.IsError {
		t.Fatal("Expected error for missing location")
	}
}

func TestExecute_Divide(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]interface{}
		wantErr  bool
		expected float64
	}{
		{"divides", map[string]interface{}{"dividend": 10.0, "divisor": 4.0}, false, 2.5},
		{"integer args", map[string]interface{}{"dividend": 10, "divisor": 5}, false, 2},
		{"by zero", map[string]interface{}{"dividend": 1.0, "divisor": 0.0}, true, 0},
		{"non-numeric", map[string]interface{}{"dividend": "x", "divisor": 2.0}, true, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Execute(llm.ToolCall{Name: "divide", Input: tc.input})
			if result.IsError != tc.wantErr {
				t.Fatalf("IsError = %v, want %v (content: %s)", result.IsError, tc.wantErr, result.Content)
			}
			if tc.wantErr {
				return
			}

			var payload map[string]float64
			if err := json.Unmarshal([]byte(result.Content), &payload); err != nil {
				t.Fatalf("Result content is not valid JSON: %v", err)
			}
			if payload["result"] != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, payload["result"])
			}
		})
	}
}

func TestExecute_UnknownTool(t *testing.T) {
	result := Execute(llm.ToolCall{Name: "launch_rocket"})
	if !result.IsError {
		t.Fatal("Expected error for unknown tool")
	}
	if !strings.Contains(result.Content, "unknown tool") {
		t.Errorf("Expected unknown tool message, got %q", result.Content)
	}
}

func TestSpecs(t *testing.T) {
	names := make(map[string]bool)
	for _, spec := range Specs() {
		names[spec.Name] = true
		if spec.Description == "" {
			t.Errorf("Tool %s has no description", spec.Name)
		}
		if spec.Schema.Type != "object" {
			t.Errorf("Tool %s schema type should be object, got %q", spec.Name, spec.Schema.Type)
		}
	}
	if !names["get_weather"] || !names["divide"] {
		t.Errorf("Expected get_weather and divide specs, got %v", names)
	}
}
