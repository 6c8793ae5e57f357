package analyzer

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/lineasoftware/boredom/internal/scripts/types"
)

var (
	leadingCommentRegex = regexp.MustCompile(`^\s*/\*\*?([\s\S]*?)\*/`)
	nameTagRegex        = regexp.MustCompile(`@name[ \t]+([^\r\n]*)`)
	descriptionTagRegex = regexp.MustCompile(`@description[ \t]+([^\r\n]*)`)
	versionTagRegex     = regexp.MustCompile(`@version[ \t]+([^\r\n]*)`)
)

// ExtractMetadata reads @name, @description and @version from the block
// comment that opens content. Missing fields are a *types.MetadataError.
func ExtractMetadata(path, content string) (types.Metadata, error) {
	var meta types.Metadata

	comment := leadingCommentRegex.FindStringSubmatch(content)
	if comment != nil {
		body := comment[1]
		meta.Name = firstTag(nameTagRegex, body)
		meta.Description = firstTag(descriptionTagRegex, body)
		meta.Version = firstTag(versionTagRegex, body)
	}

	var missing []string
	if meta.Name == "" {
		missing = append(missing, "@name")
	}
	if meta.Description == "" {
		missing = append(missing, "@description")
	}
	if meta.Version == "" {
		missing = append(missing, "@version")
	}
	if len(missing) > 0 {
		return meta, &types.MetadataError{Path: path, Missing: missing}
	}

	if _, err := semver.NewVersion(meta.Version); err != nil {
		return meta, &types.MetadataError{
			Path:   path,
			Reason: "@version " + meta.Version + " is not a semantic version",
		}
	}

	return meta, nil
}

func firstTag(re *regexp.Regexp, body string) string {
	m := re.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	// lines inside a JSDoc block may end with a stray "*" continuation
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[1]), "*"))
}
