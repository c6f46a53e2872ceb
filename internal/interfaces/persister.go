package interfaces

import "sentiment-pulse/internal/types"

// FeedPersister loads the feed once at startup and saves it after every
// mutation.
type FeedPersister interface {
	LoadFeed() ([]types.ScoredItem, error)
	SaveFeed(items []types.ScoredItem) error
}
