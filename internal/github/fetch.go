package github

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MaxConcurrentFetches bounds in-flight content requests in FetchFiles.
const MaxConcurrentFetches = 10

// FetchFiles fetches paths concurrently. Files that fail to download are left
// out of the result rather than failing the batch.
func (c *Client) FetchFiles(ctx context.Context, owner, repo string, paths []string) map[string]string {
	logger := zerolog.Ctx(ctx)
	contents := make(map[string]string, len(paths))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(MaxConcurrentFetches)

	for _, p := range paths {
		g.Go(func() error {
			content, err := c.FileContent(ctx, owner, repo, p)
			if err != nil {
				logger.Debug().Err(err).Str("path", p).Msg("skipping file")
				return nil // continue with other files
			}
			mu.Lock()
			contents[p] = content
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return contents
}
