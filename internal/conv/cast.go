package conv

import (
	"fmt"

	"github.com/hupe1980/proxgraph/model"
)

// ToNodeID converts a dense position to a node id. InvalidNodeID is reserved
// and never produced.
func ToNodeID(v int) (model.NodeID, error) {
	if v < 0 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to a node id (negative)", v)
	}
	// On 32-bit platforms int never reaches the reserved id.
	if uint64(v) >= uint64(model.InvalidNodeID) {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to a node id (too large)", v)
	}
	return model.NodeID(v), nil
}
