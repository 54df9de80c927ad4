package config

import (
	"os"
	"regexp"
	"strings"
)

var envRef = regexp.MustCompile(`^\s*env\("([^"]+)"\)\s*$`)

// ResolveDSN expands a DSN written as env("NAME") from the environment and
// falls back to DATABASE_URL when dsn is empty.
func ResolveDSN(dsn string) string {
	if m := envRef.FindStringSubmatch(dsn); len(m) == 2 {
		return os.Getenv(m[1])
	}
	if strings.TrimSpace(dsn) == "" {
		return os.Getenv("DATABASE_URL")
	}
	return dsn
}
