package interfaces

import (
	"context"

	"github.com/golangid/meshserve/candishared"
)

// Publisher abstract interface
type Publisher interface {
	PublishMessage(ctx context.Context, args *candishared.PublisherArgument) (err error)
}
