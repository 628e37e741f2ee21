package logging

import "testing"

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]interface{}{
		"user_id", 7,
		"bot_token", "123:abc",
		"Authorization", "Bearer x",
		"dangling",
	})

	if got[1] != 7 {
		t.Errorf("expected user_id untouched, got %v", got[1])
	}
	if got[3] != "[REDACTED]" {
		t.Errorf("expected bot_token redacted, got %v", got[3])
	}
	if got[5] != "[REDACTED]" {
		t.Errorf("expected Authorization redacted, got %v", got[5])
	}
	if len(got) != 7 || got[6] != "dangling" {
		t.Errorf("expected trailing key preserved, got %v", got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "debug",
		"WARN":    "warn",
		"error":   "error",
		"unknown": "info",
	}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestNewBuildsBothFormats(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		l, err := New("info", format)
		if err != nil {
			t.Fatalf("New(%q) returned error: %v", format, err)
		}
		l.With("component", "test").Debug("suppressed at info level")
	}
}
