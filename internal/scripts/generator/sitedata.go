package generator

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/lineasoftware/boredom/internal/scripts/types"
)

// SiteScript is one entry of the scripts-data sidecar
type SiteScript struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// SiteNode is a directory segment of the scripts tree
type SiteNode struct {
	Scripts  []SiteScript         `json:"scripts"`
	Children map[string]*SiteNode `json:"children"`
}

// SiteData is the sidecar written next to the plain adapter bundles
type SiteData struct {
	ProjectName string               `json:"projectName"`
	License     string               `json:"license"`
	Sites       map[string]*SiteNode `json:"sites"`
}

// OutputPath is where the plain adapter writes the bundle of a script,
// relative to the output directory.
func OutputPath(relPath string) string {
	return strings.TrimSuffix(relPath, path.Ext(relPath)) + ".js"
}

// BuildSiteData groups scripts into a tree keyed by directory segment
func BuildSiteData(projectName, license string, scripts []types.Script) (*SiteData, error) {
	if license == "" {
		license = "MIT"
	}

	data := &SiteData{ProjectName: projectName, License: license, Sites: map[string]*SiteNode{}}
	for _, script := range scripts {
		dir := path.Dir(script.Source.RelPath)
		if dir == "." {
			return nil, fmt.Errorf("%s: %w", script.Source.RelPath, types.ErrNoHostSegments)
		}

		level := data.Sites
		var node *SiteNode
		for _, segment := range strings.Split(dir, "/") {
			if level[segment] == nil {
				level[segment] = &SiteNode{Scripts: []SiteScript{}, Children: map[string]*SiteNode{}}
			}
			node = level[segment]
			level = node.Children
		}

		node.Scripts = append(node.Scripts, SiteScript{
			Path:        OutputPath(script.Source.RelPath),
			Name:        script.Metadata.Name,
			Description: script.Metadata.Description,
			Version:     script.Metadata.Version,
		})
	}

	sortNodes(data.Sites)
	return data, nil
}

func sortNodes(nodes map[string]*SiteNode) {
	for _, node := range nodes {
		sort.Slice(node.Scripts, func(i, j int) bool { return node.Scripts[i].Path < node.Scripts[j].Path })
		sortNodes(node.Children)
	}
}

// Marshal encodes the sidecar with four-space indentation
func (d *SiteData) Marshal() ([]byte, error) {
	out, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scripts data: %w", err)
	}
	return out, nil
}
