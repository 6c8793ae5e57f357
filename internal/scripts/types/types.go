package types

import (
	"errors"
	"fmt"
	"strings"
)

// ScriptType distinguishes domain-bound scripts from opt-in generic ones
type ScriptType string

const (
	ScriptTypeSite    ScriptType = "site"
	ScriptTypeGeneric ScriptType = "generic"
)

// GenericSegment is the first path segment reserved for generic scripts
const GenericSegment = "generic"

var (
	// ErrNoHostSegments is returned for files placed directly at the scripts root
	ErrNoHostSegments = errors.New("script must live under generic/ or a reverse-domain directory")
	// ErrInvalidHostSegment is returned when a directory is not a valid hostname label
	ErrInvalidHostSegment = errors.New("invalid hostname label")
)

// ScriptSource represents a discovered script file on disk
type ScriptSource struct {
	RelPath string `json:"relPath"` // slash separated, rooted at the scripts root
	AbsPath string `json:"-"`
	Content string `json:"-"`
}

// Dir returns the directory segments of the relative path
func (s ScriptSource) Dir() []string {
	parts := strings.Split(s.RelPath, "/")
	return parts[:len(parts)-1]
}

// Metadata is the doc comment metadata every script must declare
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// HostMatch is a compiled host predicate. An empty Host never matches.
type HostMatch struct {
	Host string `json:"host,omitempty"`
}

// Matches reports whether host is the compiled host or one of its subdomains
func (m HostMatch) Matches(host string) bool {
	if m.Host == "" {
		return false
	}
	return host == m.Host || strings.HasSuffix(host, "."+m.Host)
}

// Script is the analysis result for a single script source
type Script struct {
	ID       string       `json:"id"`
	Type     ScriptType   `json:"type"`
	Source   ScriptSource `json:"source"`
	Metadata Metadata     `json:"metadata"`
	Match    HostMatch    `json:"match"`
}

// Analysis contains every script discovered under a scripts root
type Analysis struct {
	Root    string
	Scripts []Script
}

// Counts returns the number of site and generic scripts
func (a *Analysis) Counts() (site, generic int) {
	for _, s := range a.Scripts {
		if s.Type == ScriptTypeGeneric {
			generic++
		} else {
			site++
		}
	}
	return site, generic
}

// MetadataError reports a script whose doc comment is missing or invalid
type MetadataError struct {
	Path    string
	Missing []string
	Reason  string
}

func (e *MetadataError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("script %s is missing required metadata (%s)", e.Path, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("script %s has invalid metadata: %s", e.Path, e.Reason)
}

// DuplicateIDError reports two scripts that resolve to the same registry id
type DuplicateIDError struct {
	ID     string
	First  string
	Second string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate script id %q (%s and %s)", e.ID, e.First, e.Second)
}
