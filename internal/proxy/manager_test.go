package proxy

import "testing"

func TestUserAgentNeverEmpty(t *testing.T) {
	m := NewManager()
	for i := 0; i < 10; i++ {
		if m.UserAgent() == "" {
			t.Fatal("UserAgent() returned an empty string")
		}
	}
}

func TestProxyEmptyWithoutConfiguration(t *testing.T) {
	m := NewManager()
	if got := m.Proxy(); got != "" {
		t.Errorf("Proxy() = %q, want empty when none configured", got)
	}
}

func TestProxyRotatesSequentially(t *testing.T) {
	m := &Manager{proxies: []string{"http://a:8000", "http://b:8000"}}
	want := []string{"http://a:8000", "http://b:8000", "http://a:8000"}
	for i, w := range want {
		if got := m.Proxy(); got != w {
			t.Errorf("call %d: Proxy() = %q, want %q", i, got, w)
		}
	}
}
