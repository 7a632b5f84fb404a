package manifest

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
	"sigs.k8s.io/yaml"
)

// Export formats.
const (
	FormatDOT  = "dot"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Document is the exported form of a graph.
type Document struct {
	Resources []*Resource `json:"resources"`
	// Levels lists resource keys per topological level.
	Levels [][]string `json:"levels"`
}

// Document returns the exportable form of g.
func (g *Graph) Document() (*Document, error) {
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}
	doc := &Document{Resources: g.Resources()}
	for _, level := range levels {
		keys := make([]string, len(level))
		for i, r := range level {
			keys[i] = r.Key
		}
		doc.Levels = append(doc.Levels, keys)
	}
	return doc, nil
}

// MarshalJSON renders the graph as a Document.
func (g *Graph) MarshalJSON() ([]byte, error) {
	doc, err := g.Document()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Export renders g in the given format.
func (g *Graph) Export(format string) ([]byte, error) {
	switch format {
	case FormatDOT:
		dot, err := g.DOT()
		if err != nil {
			return nil, err
		}
		return []byte(dot), nil
	case FormatJSON:
		doc, err := g.Document()
		if err != nil {
			return nil, err
		}
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		doc, err := g.Document()
		if err != nil {
			return nil, err
		}
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unsupported format %q (use %s, %s or %s)", format, FormatDOT, FormatJSON, FormatYAML)
	}
}

const dotGraphName = "tierstack"

// DOT renders the graph in Graphviz format with one cluster per tier.
// Edges point from a dependency to the resource that needs it.
func (g *Graph) DOT() (string, error) {
	out := gographviz.NewGraph()
	if err := out.SetName(dotGraphName); err != nil {
		return "", err
	}
	if err := out.SetDir(true); err != nil {
		return "", err
	}
	if err := out.AddAttr(dotGraphName, "rankdir", "LR"); err != nil {
		return "", err
	}

	for _, tier := range Tiers() {
		members := g.ByTier(tier)
		if len(members) == 0 {
			continue
		}
		cluster := "cluster_" + string(tier)
		if err := out.AddSubGraph(dotGraphName, cluster, map[string]string{
			"label": strconv.Quote(string(tier)),
			"style": "rounded",
		}); err != nil {
			return "", err
		}
		for _, r := range members {
			if err := out.AddNode(cluster, strconv.Quote(r.Key), map[string]string{
				"label": `"` + string(r.Kind) + `\n` + r.Name + `"`,
				"shape": "box",
			}); err != nil {
				return "", err
			}
		}
	}

	for _, r := range g.resources {
		for _, dep := range r.DependsOn {
			if _, ok := g.index[dep]; !ok {
				continue
			}
			if err := out.AddEdge(strconv.Quote(dep), strconv.Quote(r.Key), true, nil); err != nil {
				return "", err
			}
		}
	}
	return out.String(), nil
}
