package mediaserver

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Resource ordering policies.
const (
	OrderSmallest = "smallest"
	OrderLargest  = "largest"
)

// externalFormats are hosted elsewhere and expose no downloadable URL.
var externalFormats = map[string]bool{
	"youtube": true,
	"embed":   true,
}

// ResourceAPI is the subset of the platform client the resolver needs.
type ResourceAPI interface {
	ResourcesList(ctx context.Context, oid string) ([]Resource, error)
	DownloadURL(ctx context.Context, oid, resourcePath string) (string, error)
}

// Resolver selects the best downloadable resource for a video.
type Resolver struct {
	api   ResourceAPI
	order string
}

// NewResolver builds a resolver with the given size ordering policy
// (OrderSmallest or OrderLargest).
func NewResolver(api ResourceAPI, order string) (*Resolver, error) {
	switch order {
	case OrderSmallest, OrderLargest:
	default:
		return nil, fmt.Errorf("resource order: unsupported value %q", order)
	}
	return &Resolver{api: api, order: order}, nil
}

// BestResourceURL resolves the direct-download URL for a video. Streaming
// manifests are never selected. Returns ErrNoResource when nothing
// downloadable exists; platform failures surface as RemoteError and must not
// be treated as ErrNoResource.
func (r *Resolver) BestResourceURL(ctx context.Context, oid string) (string, error) {
	resources, err := r.api.ResourcesList(ctx, oid)
	if err != nil {
		return "", err
	}

	candidates := make([]Resource, 0, len(resources))
	for _, resource := range resources {
		if isStreamingManifest(resource.Format) {
			continue
		}
		candidates = append(candidates, resource)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: oid %s", ErrNoResource, oid)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.FileSize != b.FileSize {
			if r.order == OrderLargest {
				return a.FileSize > b.FileSize
			}
			return a.FileSize < b.FileSize
		}
		return a.Path < b.Path
	})

	selected := candidates[0]
	if externalFormats[strings.ToLower(selected.Format)] {
		return "", fmt.Errorf("%w: oid %s is hosted externally (%s)", ErrNoResource, oid, selected.Format)
	}

	return r.api.DownloadURL(ctx, oid, selected.Path)
}

func isStreamingManifest(format string) bool {
	return strings.Contains(strings.ToLower(format), "m3u8")
}
