package interfaces

import (
	"github.com/golangid/meshserve/codebase/factory/types"
)

// Broker abstraction, external message broker receiving pubsub events
type Broker interface {
	GetName() types.Broker
	GetPublisher() Publisher
	Health() map[string]error
	Closer
}
