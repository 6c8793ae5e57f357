package openapi

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
)

type EmptyInput struct{}
type EmptyOutput struct{}

func handler(ctx context.Context, input *EmptyInput) (*EmptyOutput, error) {
	return &EmptyOutput{}, nil
}

func createTestAPI() huma.API {
	mux := http.NewServeMux()
	config := huma.DefaultConfig("Test API", "1.0.0")
	api := humago.New(mux, config)

	huma.Register(api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Status",
	}, handler)
	huma.Register(api, huma.Operation{
		OperationID: "trigger",
		Method:      http.MethodPost,
		Path:        "/api/status",
		Summary:     "Trigger",
	}, handler)
	return api
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"": FormatJSON, "json": FormatJSON, "YAML": FormatYAML, "yml": FormatYAML}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil {
			t.Fatalf("ParseFormat(%q): unexpected error %v", in, err)
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseFormat("toml"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestFormatForPath(t *testing.T) {
	if got := FormatForPath("api/openapi.yaml"); got != FormatYAML {
		t.Errorf("Expected yaml, got %q", got)
	}
	if got := FormatForPath("openapi.json"); got != FormatJSON {
		t.Errorf("Expected json, got %q", got)
	}
	if got := FormatForPath("openapi"); got != FormatJSON {
		t.Errorf("Expected json default, got %q", got)
	}
}

func TestMarshal(t *testing.T) {
	api := createTestAPI()

	spec, err := Marshal(api, FormatJSON)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(string(spec), `"openapi"`) || !strings.Contains(string(spec), "Test API") {
		t.Errorf("Unexpected JSON spec: %s", spec)
	}

	spec, err = Marshal(api, FormatYAML)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(string(spec), "openapi:") {
		t.Error("Expected YAML spec to contain 'openapi:' field")
	}
}

func TestWriteFile(t *testing.T) {
	api := createTestAPI()
	outputPath := filepath.Join(t.TempDir(), "nested", "dir", "spec.json")

	if err := WriteFile(api, outputPath, FormatJSON); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	if !strings.Contains(string(content), "get-status") {
		t.Error("Expected file content to contain operation ID")
	}
}

func TestOperations(t *testing.T) {
	ops := Operations(createTestAPI())
	want := []string{"GET /api/status", "POST /api/status"}

	if len(ops) != len(want) {
		t.Fatalf("Expected %v, got %v", want, ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("Expected %q at %d, got %q", want[i], i, ops[i])
		}
	}
}

func TestOperationsEmptyAPI(t *testing.T) {
	api := humago.New(http.NewServeMux(), huma.DefaultConfig("Empty", "1.0.0"))
	if ops := Operations(api); len(ops) != 0 {
		t.Errorf("Expected no operations, got %v", ops)
	}
}
