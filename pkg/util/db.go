package util

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DetectDriver returns the database/sql driver name based on the DSN scheme.
// Supported schemes: mysql, postgres/postgresql, sqlite/sqlite3 and file.
func DetectDriver(dsn string) (string, error) {
	parsedURL, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	switch parsedURL.Scheme {
	case "postgres", "postgresql":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite3", "file":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unknown scheme: %s", parsedURL.Scheme)
	}
}

// DriverDSN converts a URL-style DSN into the form expected by the driver.
// mysql and sqlite3 do not accept their own scheme prefix.
func DriverDSN(driver, dsn string) string {
	switch driver {
	case "mysql":
		return strings.TrimPrefix(dsn, "mysql://")
	case "sqlite3":
		for _, p := range []string{"sqlite3://", "sqlite://"} {
			if strings.HasPrefix(dsn, p) {
				return strings.TrimPrefix(dsn, p)
			}
		}
	}
	return dsn
}

// Rebind rewrites '?' placeholders to '$n' for postgres.
func Rebind(driver, q string) string {
	if driver != "postgres" {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
