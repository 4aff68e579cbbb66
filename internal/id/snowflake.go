package id

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator mints archive run identifiers. Identifiers from one generator are
// strictly increasing, and generators with distinct node IDs never collide.
type Generator struct {
	node *snowflake.Node
}

// NewGenerator returns a generator for nodeID, which must fit in the
// snowflake node bits (0-1023).
func NewGenerator(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("invalid node id %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

// Next returns a fresh run identifier.
func (g *Generator) Next() int64 {
	return g.node.Generate().Int64()
}
