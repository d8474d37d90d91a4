package anthropic

import (
	"testing"

	"github.com/mnemoai/mnemo-go-sdk/llm"
)

func TestNewFillsDefaults(t *testing.T) {
	c := New(nil, Config{})
	if c.cfg.Model != DefaultConfig.Model {
		t.Errorf("model = %q, want default", c.cfg.Model)
	}
	if c.cfg.MaxTokens != DefaultConfig.MaxTokens {
		t.Errorf("max tokens = %d, want default", c.cfg.MaxTokens)
	}

	c = New(nil, Config{Model: "claude-haiku-3-5", MaxTokens: 512})
	if c.cfg.Model != "claude-haiku-3-5" || c.cfg.MaxTokens != 512 {
		t.Errorf("explicit config not kept: %+v", c.cfg)
	}
}

func TestInputSchemaCarriesRequired(t *testing.T) {
	schema := llm.ObjectSchema(map[string]interface{}{
		"ids": llm.ArrayProperty("memory ids", llm.StringProperty("id")),
	}, "ids")

	in := inputSchema(schema)
	if in.Properties == nil {
		t.Fatal("properties dropped")
	}
	if len(in.Required) != 1 || in.Required[0] != "ids" {
		t.Errorf("required = %v, want [ids]", in.Required)
	}
}
