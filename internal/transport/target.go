package transport

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

var ErrBadOrigin = errors.New("bad origin")

// NormalizePort parses the leading integer of val. A value with no leading
// integer is returned verbatim, a negative one reports ok=false.
func NormalizePort(val string) (port string, ok bool) {
	n, parsed := leadingInt(val)
	if !parsed {
		return val, true
	}
	if n >= 0 {
		return strconv.Itoa(n), true
	}
	return "", false
}

func leadingInt(s string) (int, bool) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[start:i])
	if err != nil {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// Target builds the backend URL from the page origin and configured port:
// wss when the origin is https, ws otherwise.
func Target(origin, port string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadOrigin, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: %q has no host", ErrBadOrigin, origin)
	}

	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}

	out := url.URL{Scheme: scheme, Host: host}
	if p, ok := NormalizePort(port); ok && p != "" {
		out.Host = net.JoinHostPort(host, p)
	} else if strings.Contains(host, ":") {
		out.Host = "[" + host + "]"
	}
	return out.String(), nil
}
