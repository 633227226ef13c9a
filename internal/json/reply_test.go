package json

import (
	"strings"
	"testing"
)

type TestStruct struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestDocumentReply(t *testing.T) {
	result, err := DecodeReply[TestStruct]([]byte(`{"name": "test", "value": 42}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "test" {
		t.Errorf("expected name 'test', got '%s'", result.Name)
	}
	if result.Value != 42 {
		t.Errorf("expected value 42, got %d", result.Value)
	}
}

func TestStringReply(t *testing.T) {
	result, err := DecodeReply[[]TestStruct]([]byte(`"[{\"name\": \"a\", \"value\": 1}, {\"name\": \"b\", \"value\": 2}]"`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 || result[1].Name != "b" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestEmptyReply(t *testing.T) {
	if _, err := DecodeReply[TestStruct]([]byte("  ")); err == nil {
		t.Error("expected error for empty reply")
	}
}

func TestInvalidReply(t *testing.T) {
	_, err := DecodeReply[TestStruct]([]byte(`"not json"`))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "not json") {
		t.Errorf("error should preview the reply: %v", err)
	}
}

func TestEncodeList(t *testing.T) {
	if got := EncodeList([]string{"person", "car"}); got != `["person","car"]` {
		t.Errorf("EncodeList = %s", got)
	}
	if got := EncodeList(nil); got != "" {
		t.Errorf("EncodeList(nil) = %q", got)
	}
}
