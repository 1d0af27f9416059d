package viewer

import (
	"context"

	"github.com/Bahjat/wp-posts-viewer/internal/model"
)

// PostsProvider defines the contract for anything that can resolve a
// request target to a payload.
type PostsProvider interface {
	Fetch(ctx context.Context, target string) (*model.Payload, error)
}
