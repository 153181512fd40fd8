package graph

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

type topologyFile struct {
	Nodes []nodeSpec `yaml:"nodes"`
	Edges []edgeSpec `yaml:"edges"`
}

type nodeSpec struct {
	ID        string  `yaml:"id"`
	Type      string  `yaml:"type"`
	Model     string  `yaml:"model"`
	Address   string  `yaml:"address"`
	Pump      string  `yaml:"pump"`
	MaxVolume float64 `yaml:"max_volume"`
	Volume    float64 `yaml:"volume"`
}

type edgeSpec struct {
	From     string  `yaml:"from"`
	To       string  `yaml:"to"`
	Backbone bool    `yaml:"backbone"`
	Volume   float64 `yaml:"volume"`
	FromPort int     `yaml:"from_port"`
	ToPort   int     `yaml:"to_port"`
}

// LoadFile reads, validates and builds the rig graph from a topology
// file.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topology: %w", err)
	}
	return Load(path, data)
}

// Load validates topology YAML against the embedded CUE schema and builds
// the graph. The filename is only used for error positions.
func Load(filename string, data []byte) (*Graph, error) {
	if err := validateSchema(filename, data); err != nil {
		return nil, err
	}

	var tf topologyFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, &GraphError{Code: ErrCodeInvalidTopology, Message: err.Error()}
	}

	nodes := make([]*Node, 0, len(tf.Nodes))
	for _, ns := range tf.Nodes {
		nodes = append(nodes, &Node{
			// Authoring tools emit node labels in whatever form the OS
			// produced; NFC-normalize so lookups match the script.
			ID:            norm.NFC.String(ns.ID),
			Type:          NodeType(ns.Type),
			Model:         ns.Model,
			Address:       ns.Address,
			Pump:          norm.NFC.String(ns.Pump),
			MaxVolume:     ns.MaxVolume,
			CurrentVolume: ns.Volume,
		})
	}

	edges := make([]*Edge, 0, len(tf.Edges))
	for _, es := range tf.Edges {
		edges = append(edges, &Edge{
			From:     norm.NFC.String(es.From),
			To:       norm.NFC.String(es.To),
			Backbone: es.Backbone,
			Volume:   es.Volume,
			FromPort: es.FromPort,
			ToPort:   es.ToPort,
		})
	}

	g, err := New(nodes, edges)
	if err != nil {
		return nil, err
	}
	slog.Info("topology loaded", "file", filename, "nodes", len(nodes), "edges", len(edges))
	return g, nil
}

// validateSchema unifies the YAML document with the embedded CUE schema.
func validateSchema(filename string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile topology schema: %w", err)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return &GraphError{Code: ErrCodeInvalidTopology, Message: err.Error()}
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return &GraphError{Code: ErrCodeInvalidTopology, Message: err.Error()}
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &GraphError{Code: ErrCodeInvalidTopology, Message: err.Error()}
	}
	return nil
}
