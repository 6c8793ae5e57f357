package analyzer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/lineasoftware/boredom/internal/scripts/types"
)

var hostLabelRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// CompileHostMatch derives the script type and host predicate from a
// slash-separated path relative to the scripts root.
//
//	generic/media_grayscale.ts  -> generic, never matches
//	com/reddit/posts.ts         -> site, reddit.com and *.reddit.com
//	com/google/maps/x.ts        -> site, maps.google.com and subdomains
func CompileHostMatch(relPath string) (types.ScriptType, types.HostMatch, error) {
	parts := strings.Split(relPath, "/")
	dirs := parts[:len(parts)-1]

	if len(dirs) == 0 {
		return "", types.HostMatch{}, fmt.Errorf("%s: %w", relPath, types.ErrNoHostSegments)
	}

	if dirs[0] == types.GenericSegment {
		return types.ScriptTypeGeneric, types.HostMatch{}, nil
	}

	labels := make([]string, len(dirs))
	for i, dir := range dirs {
		if !hostLabelRegex.MatchString(dir) {
			return "", types.HostMatch{}, fmt.Errorf("%s: %w %q", relPath, types.ErrInvalidHostSegment, dir)
		}
		labels[len(dirs)-1-i] = dir
	}

	return types.ScriptTypeSite, types.HostMatch{Host: strings.Join(labels, ".")}, nil
}

// PathForHost is the inverse of CompileHostMatch: maps.google.com -> com/google/maps
func PathForHost(host string) (string, error) {
	host = strings.Trim(strings.ToLower(strings.TrimSpace(host)), ".")
	if host == "" {
		return "", fmt.Errorf("empty host: %w", types.ErrNoHostSegments)
	}

	labels := strings.Split(host, ".")
	segments := make([]string, len(labels))
	for i, label := range labels {
		if !hostLabelRegex.MatchString(label) {
			return "", fmt.Errorf("%s: %w %q", host, types.ErrInvalidHostSegment, label)
		}
		segments[len(labels)-1-i] = label
	}

	return strings.Join(segments, "/"), nil
}

// MatchExpression renders m as a JavaScript boolean expression over param.
func MatchExpression(m types.HostMatch, param string) string {
	if m.Host == "" {
		return "false"
	}
	return fmt.Sprintf("(%s === %s || %s.endsWith(%s))",
		param, jsString(m.Host), param, jsString("."+m.Host))
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
