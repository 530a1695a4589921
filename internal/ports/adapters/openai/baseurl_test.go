package openai

import "testing"

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name         string
		baseURL      string
		allowedHosts []string
		wantErr      bool
	}{
		{name: "default", baseURL: ""},
		{name: "openrouter", baseURL: "https://openrouter.ai/api/v1/"},
		{name: "reject non-absolute URL", baseURL: "api.openai.com/v1", wantErr: true},
		{name: "reject http", baseURL: "http://api.openai.com/v1", wantErr: true},
		{name: "reject unknown host", baseURL: "https://evil.example/v1", wantErr: true},
		{name: "reject userinfo", baseURL: "https://user:pw@api.openai.com/v1", wantErr: true},
		{name: "reject query", baseURL: "https://api.openai.com/v1?x=1", wantErr: true},
		{name: "allow configured host", baseURL: "https://llm.internal:8443/v1", allowedHosts: []string{"https://llm.internal:8443/"}},
		{name: "configured list replaces defaults", baseURL: "https://api.openai.com/v1", allowedHosts: []string{"llm.internal"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBaseURL(tt.baseURL, tt.allowedHosts)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNormalizeAllowedHosts_DefaultWhenEmpty(t *testing.T) {
	out := normalizeAllowedHosts([]string{" ", "https://", "http://"})
	if len(out) != len(defaultAllowedHosts) {
		t.Fatalf("expected default allowed hosts, got %v", out)
	}
}

func TestIsOpenRouter(t *testing.T) {
	if !isOpenRouter("https://openrouter.ai/api/v1") || isOpenRouter("") {
		t.Fatal("unexpected openrouter detection")
	}
}
