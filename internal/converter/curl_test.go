package converter

import (
	"testing"

	"github.com/studiowebux/pepe/internal/request"
)

func TestParseCurl(t *testing.T) {
	tests := []struct {
		name       string
		cmd        string
		wantMethod string
		wantURL    string
		wantBody   string
		wantErr    bool
	}{
		{
			name:       "plain GET",
			cmd:        "curl https://api.example.com/users",
			wantMethod: "GET",
			wantURL:    "https://api.example.com/users",
		},
		{
			name:       "explicit method",
			cmd:        "curl -X DELETE https://api.example.com/users/42",
			wantMethod: "DELETE",
			wantURL:    "https://api.example.com/users/42",
		},
		{
			name:       "long form method and url flag",
			cmd:        "curl --request PUT --url https://api.example.com/users/42",
			wantMethod: "PUT",
			wantURL:    "https://api.example.com/users/42",
		},
		{
			name:       "data implies POST",
			cmd:        `curl https://api.example.com/users -d '{"name":"bob"}'`,
			wantMethod: "POST",
			wantURL:    "https://api.example.com/users",
			wantBody:   `{"name":"bob"}`,
		},
		{
			name: "multiline with continuations",
			cmd: "curl -X POST \\\nhttps://api.example.com/login \\\n-d '{\"user\":\"a\"}'",
			wantMethod: "POST",
			wantURL:    "https://api.example.com/login",
			wantBody:   `{"user":"a"}`,
		},
		{
			name:    "no url",
			cmd:     "curl -X GET",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCurl(tt.cmd)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCurl() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Method != tt.wantMethod {
				t.Errorf("method = %s, want %s", got.Method, tt.wantMethod)
			}
			if got.URL != tt.wantURL {
				t.Errorf("url = %s, want %s", got.URL, tt.wantURL)
			}
			if got.Body != tt.wantBody {
				t.Errorf("body = %q, want %q", got.Body, tt.wantBody)
			}
		})
	}
}

func TestParseCurlHeadersAndAuth(t *testing.T) {
	cmd := `curl -H 'Accept: application/json' --header 'X-Token: abc' -u admin:secret -x socks5://localhost:1080 https://api.example.com`

	got, err := ParseCurl(cmd)
	if err != nil {
		t.Fatalf("ParseCurl returned error: %v", err)
	}

	if len(got.Headers) != 2 {
		t.Fatalf("headers = %v, want 2 entries", got.Headers)
	}
	if got.Headers[0] != (request.Header{Name: "Accept", Value: "application/json"}) {
		t.Errorf("first header = %+v", got.Headers[0])
	}
	if got.Auth == nil || got.Auth.Username != "admin" || got.Auth.Password != "secret" {
		t.Errorf("auth = %+v, want admin/secret", got.Auth)
	}
	if got.Proxy != "socks5://localhost:1080" {
		t.Errorf("proxy = %s", got.Proxy)
	}
}

func TestApply(t *testing.T) {
	tpl := &request.Template{
		Method:    "GET",
		UserAgent: "pepe/test",
		Headers:   []request.Header{{Name: "X-Base", Value: "1"}},
	}

	parsed := &ParsedCurl{
		Method:  "POST",
		URL:     "https://example.com",
		Headers: []request.Header{{Name: "Accept", Value: "*/*"}},
		Body:    "data",
	}
	parsed.Apply(tpl)

	if tpl.Method != "POST" || tpl.URL != "https://example.com" {
		t.Errorf("template not updated: %+v", tpl)
	}
	if len(tpl.Headers) != 2 {
		t.Errorf("headers not merged: %v", tpl.Headers)
	}
	if string(tpl.Body) != "data" {
		t.Errorf("body = %q", tpl.Body)
	}
	if tpl.UserAgent != "pepe/test" {
		t.Errorf("user agent overwritten: %s", tpl.UserAgent)
	}
}
