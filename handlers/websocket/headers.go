package websocket

import (
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

// siteNameHeader lets reverse proxies pin the tenant explicitly instead of
// relying on hostname detection.
const siteNameHeader = "X-Site-Name"

func headerValue(headers map[string][]string, name string) string {
	if vs, ok := headers[textproto.CanonicalMIMEHeaderKey(name)]; ok && len(vs) > 0 {
		return vs[0]
	}
	// Handshake headers may arrive with non-canonical keys depending on
	// the transport in front of us.
	for k, vs := range headers {
		if strings.EqualFold(k, name) && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

// parseCookies parses a raw Cookie header into name/value pairs using the
// stdlib's cookie parser. Values are percent-decoded: clients send
// user_id=alice%40example.com and the provisional identity must be the
// decoded address.
func parseCookies(raw string) map[string]string {
	cookies := make(map[string]string)
	if raw == "" {
		return cookies
	}
	header := http.Header{}
	header.Add("Cookie", raw)
	req := http.Request{Header: header}
	for _, c := range req.Cookies() {
		value := c.Value
		// PathUnescape rather than QueryUnescape: a literal "+" in a
		// cookie value must survive.
		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}
		cookies[c.Name] = value
	}
	return cookies
}

func stringArgs(datas []any, n int) ([]string, bool) {
	if len(datas) < n {
		return nil, false
	}
	args := make([]string, n)
	for i := 0; i < n; i++ {
		s, ok := datas[i].(string)
		if !ok || s == "" {
			return nil, false
		}
		args[i] = s
	}
	return args, true
}
