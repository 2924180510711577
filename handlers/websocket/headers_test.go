package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderValue(t *testing.T) {
	headers := map[string][]string{
		"Host":        {"site1.example.com:8000"},
		"origin":      {"https://site1.example.com"},
		"X-Site-Name": {"site1"},
	}

	assert.Equal(t, "site1.example.com:8000", headerValue(headers, "Host"))
	assert.Equal(t, "site1.example.com:8000", headerValue(headers, "host"))
	assert.Equal(t, "https://site1.example.com", headerValue(headers, "Origin"))
	assert.Equal(t, "site1", headerValue(headers, siteNameHeader))
	assert.Equal(t, "", headerValue(headers, "Cookie"))
}

func TestParseCookies(t *testing.T) {
	cookies := parseCookies("sid=abc123; user_id=alice%40example.com; theme=dark")
	assert.Equal(t, "abc123", cookies["sid"])
	assert.Equal(t, "alice@example.com", cookies["user_id"])
	assert.Equal(t, "dark", cookies["theme"])
}

func TestParseCookiesDecoding(t *testing.T) {
	// "+" is not an encoded space in cookie values.
	assert.Equal(t, "a+b", parseCookies("sid=a+b")["sid"])
	// A value that is not valid percent-encoding passes through raw.
	assert.Equal(t, "100%valid", parseCookies("sid=100%valid")["sid"])
}

func TestParseCookiesEmpty(t *testing.T) {
	assert.Empty(t, parseCookies(""))
	assert.NotContains(t, parseCookies("user_id=alice"), "sid")
}

func TestStringArgs(t *testing.T) {
	args, ok := stringArgs([]any{"Task", "T-1"}, 2)
	assert.True(t, ok)
	assert.Equal(t, []string{"Task", "T-1"}, args)

	_, ok = stringArgs([]any{"Task"}, 2)
	assert.False(t, ok)

	_, ok = stringArgs([]any{"Task", 42}, 2)
	assert.False(t, ok)

	_, ok = stringArgs([]any{"", "T-1"}, 2)
	assert.False(t, ok)
}
