package db

import (
	"net/url"
	"regexp"
	"strings"
)

var kvPairRegex = regexp.MustCompile(`(?i)\b(host|user|password|dbname|port|sslmode)=`)

// NormalizeDSN accepts either a URL style DSN (postgres://...) or a key=value list.
// It trims quotes and whitespace and adds sslmode=disable to key=value lists missing it.
func NormalizeDSN(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'")
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return s
	}
	if !kvPairRegex.MatchString(s) {
		return s
	}
	cleaned := strings.Join(strings.Fields(s), " ")
	if !strings.Contains(strings.ToLower(cleaned), "sslmode=") {
		cleaned += " sslmode=disable"
	}
	return cleaned
}

// ToURLDSN converts a key=value list to URL form, which golang-migrate requires.
func ToURLDSN(kvDSN string) string {
	if kvDSN == "" {
		return kvDSN
	}
	lower := strings.ToLower(kvDSN)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return kvDSN
	}
	m := map[string]string{}
	for _, part := range strings.Fields(kvDSN) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 {
			m[strings.ToLower(kv[0])] = kv[1]
		}
	}
	host, port, user, pass, dbname := m["host"], m["port"], m["user"], m["password"], m["dbname"]
	if host == "" || user == "" || dbname == "" {
		return kvDSN
	}
	u := &url.URL{Scheme: "postgres", Host: host, Path: "/" + dbname}
	if port != "" {
		u.Host = host + ":" + port
	}
	if pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	if sslm, ok := m["sslmode"]; ok {
		q := url.Values{}
		q.Set("sslmode", sslm)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

var passwordRegex = regexp.MustCompile(`(password=)([^\s]+)`)

// MaskDSN hides the password of a DSN for diagnostics.
func MaskDSN(dsn string) string {
	if strings.Contains(dsn, "password=") {
		return passwordRegex.ReplaceAllString(dsn, `${1}***`)
	}
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			return u.Redacted()
		}
	}
	return dsn
}
