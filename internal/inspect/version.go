package inspect

import (
	"context"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Features lists optional server capabilities derived from its version.
type Features struct {
	// ScanType is true when SCAN accepts the TYPE option.
	ScanType bool `json:"scanType"`
	// MemoryUsage is true when MEMORY USAGE is available.
	MemoryUsage bool `json:"memoryUsage"`
}

var (
	scanTypeSince    = semver.MustParse("6.0.0")
	memoryUsageSince = semver.MustParse("4.0.0")
)

// FeaturesFor returns the features of a server reporting version. Versions
// that cannot be parsed are assumed to be current.
func FeaturesFor(version string) Features {
	v, err := semver.NewVersion(normalize(version))
	if err != nil {
		return Features{ScanType: true, MemoryUsage: true}
	}
	return Features{
		ScanType:    !v.LessThan(scanTypeSince),
		MemoryUsage: !v.LessThan(memoryUsageSince),
	}
}

func normalize(s string) string {
	s = strings.TrimSpace(s)
	if strings.Count(s, ".") == 1 {
		return s + ".0"
	}
	return s
}

// Features reads the server version. On failure the returned features are
// the conservative zero value.
func (s *Service) Features(ctx context.Context, c Conn) (Features, error) {
	info, err := c.Info(ctx, "server")
	if err != nil {
		return Features{}, err
	}
	return FeaturesFor(info.Get("redis_version")), nil
}
