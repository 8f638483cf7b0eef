package protocol

import (
	"encoding/json"
	"testing"
)

func TestSearchRequestDefaults(t *testing.T) {
	req := SearchRequest{Query: "clima"}.WithDefaults()
	if req.SearchDepth != "basic" || req.MaxResults != 5 || req.IncludeAnswer != "basic" || req.Topic != "general" {
		t.Errorf("WithDefaults() = %+v", req)
	}

	req = SearchRequest{Query: "x", MaxResults: 2, SearchDepth: "advanced"}.WithDefaults()
	if req.MaxResults != 2 || req.SearchDepth != "advanced" {
		t.Errorf("explicit fields overwritten: %+v", req)
	}
}

func TestNormalizeContents(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantLen   int
		wantRoles []string
		wantErr   bool
	}{
		{
			name:      "single object with parts",
			raw:       `{"parts":[{"text":"oi"}]}`,
			wantLen:   1,
			wantRoles: []string{"user"},
		},
		{
			name:      "list missing roles",
			raw:       `[{"parts":[{"text":"a"}]},{"role":"model","parts":[{"text":"b"}]}]`,
			wantLen:   2,
			wantRoles: []string{"user", "model"},
		},
		{
			name:      "plain string",
			raw:       `"resuma"`,
			wantLen:   1,
			wantRoles: []string{"user"},
		},
		{name: "object without parts", raw: `{"role":"user"}`, wantErr: true},
		{name: "empty", raw: ``, wantErr: true},
		{name: "number", raw: `42`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeContents(json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeContents() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			for i, role := range tt.wantRoles {
				if got[i].Role != role {
					t.Errorf("contents[%d].Role = %q, want %q", i, got[i].Role, role)
				}
			}
		})
	}
}

func TestNewGenerateRequest(t *testing.T) {
	req, err := NewGenerateRequest("", []Content{{Role: RoleUser, Parts: []Part{{Text: "oi"}}}}, GoogleSearchTool())
	if err != nil {
		t.Fatal(err)
	}
	data, err := Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	tools, ok := back["tools"].([]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("tools = %v", back["tools"])
	}
	if _, ok := tools[0].(map[string]any)["googleSearch"]; !ok {
		t.Errorf("googleSearch tool missing: %s", data)
	}
}
