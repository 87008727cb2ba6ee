package browser

import "testing"

func TestRequestHeadersAreBrowserLike(t *testing.T) {
	for _, key := range []string{"Accept", "Accept-Language"} {
		v, ok := requestHeaders[key]
		if !ok {
			t.Errorf("requestHeaders missing %s", key)
			continue
		}
		if s, _ := v.(string); s == "" {
			t.Errorf("requestHeaders[%s] is empty", key)
		}
	}

	// Chrome manages the connection-level headers itself; shipping them via
	// CDP gets them silently dropped or the request flagged.
	for _, key := range []string{"Accept-Encoding", "Connection", "Host"} {
		if _, ok := requestHeaders[key]; ok {
			t.Errorf("requestHeaders must not carry hop-by-hop header %s", key)
		}
	}
}

func TestQueryOption(t *testing.T) {
	if got := queryOption(ByXPath); got == nil {
		t.Error("queryOption(ByXPath) returned nil")
	}
	if got := queryOption(ByCSS); got == nil {
		t.Error("queryOption(ByCSS) returned nil")
	}
}

func TestByString(t *testing.T) {
	if ByCSS.String() != "css" || ByXPath.String() != "xpath" {
		t.Errorf("By.String() = %q/%q", ByCSS.String(), ByXPath.String())
	}
}
