package domain

import "context"

// DiscoveryPort finds frame file URLs for a query. GWOSC and datafind
// client protocols live behind this port
type DiscoveryPort interface {
	FindURLs(ctx context.Context, q Query) ([]string, error)
}

// FetchPort downloads one URL into a directory and returns the local path
type FetchPort interface {
	Download(ctx context.Context, url, dir string) (string, error)
}
