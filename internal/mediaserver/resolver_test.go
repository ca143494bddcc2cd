package mediaserver

import (
	"context"
	"errors"
	"testing"
)

type fakeResourceAPI struct {
	resources []Resource
	listErr   error
	urlCalls  []string
}

func (f *fakeResourceAPI) ResourcesList(ctx context.Context, oid string) ([]Resource, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.resources, nil
}

func (f *fakeResourceAPI) DownloadURL(ctx context.Context, oid, resourcePath string) (string, error) {
	f.urlCalls = append(f.urlCalls, resourcePath)
	return "https://media.test/dl/" + resourcePath, nil
}

func TestBestResourceURLSkipsManifests(t *testing.T) {
	api := &fakeResourceAPI{resources: []Resource{
		{Format: "m3u8", FileSize: 10, Path: "stream.m3u8"},
		{Format: "mp4", FileSize: 500, Path: "video.mp4"},
	}}
	resolver, err := NewResolver(api, OrderSmallest)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	url, err := resolver.BestResourceURL(context.Background(), "v1")
	if err != nil {
		t.Fatalf("BestResourceURL failed: %v", err)
	}
	if url != "https://media.test/dl/video.mp4" {
		t.Fatalf("expected mp4 selected, got %s", url)
	}
}

func TestBestResourceURLManifestFirstInList(t *testing.T) {
	// Same resources in reverse order must yield the same selection.
	api := &fakeResourceAPI{resources: []Resource{
		{Format: "mp4", FileSize: 500, Path: "video.mp4"},
		{Format: "m3u8", FileSize: 10, Path: "stream.m3u8"},
	}}
	resolver, _ := NewResolver(api, OrderSmallest)

	url, err := resolver.BestResourceURL(context.Background(), "v1")
	if err != nil {
		t.Fatalf("BestResourceURL failed: %v", err)
	}
	if url != "https://media.test/dl/video.mp4" {
		t.Fatalf("expected mp4 selected, got %s", url)
	}
}

func TestBestResourceURLOrdering(t *testing.T) {
	resources := []Resource{
		{Format: "mp4", FileSize: 900, Path: "hd.mp4"},
		{Format: "mp4", FileSize: 100, Path: "sd.mp4"},
	}

	smallest, _ := NewResolver(&fakeResourceAPI{resources: resources}, OrderSmallest)
	url, err := smallest.BestResourceURL(context.Background(), "v1")
	if err != nil {
		t.Fatalf("BestResourceURL failed: %v", err)
	}
	if url != "https://media.test/dl/sd.mp4" {
		t.Fatalf("smallest-first should pick sd.mp4, got %s", url)
	}

	largest, _ := NewResolver(&fakeResourceAPI{resources: resources}, OrderLargest)
	url, err = largest.BestResourceURL(context.Background(), "v1")
	if err != nil {
		t.Fatalf("BestResourceURL failed: %v", err)
	}
	if url != "https://media.test/dl/hd.mp4" {
		t.Fatalf("largest-first should pick hd.mp4, got %s", url)
	}
}

func TestBestResourceURLEmptyList(t *testing.T) {
	resolver, _ := NewResolver(&fakeResourceAPI{}, OrderSmallest)

	_, err := resolver.BestResourceURL(context.Background(), "v1")
	if !errors.Is(err, ErrNoResource) {
		t.Fatalf("expected ErrNoResource, got %v", err)
	}
}

func TestBestResourceURLExternalFormat(t *testing.T) {
	api := &fakeResourceAPI{resources: []Resource{
		{Format: "youtube", FileSize: 0, Path: "yt"},
	}}
	resolver, _ := NewResolver(api, OrderSmallest)

	_, err := resolver.BestResourceURL(context.Background(), "v1")
	if !errors.Is(err, ErrNoResource) {
		t.Fatalf("expected ErrNoResource for external hosting, got %v", err)
	}
	if len(api.urlCalls) != 0 {
		t.Fatal("no download URL lookup expected for external resources")
	}
}

func TestBestResourceURLRemoteErrorPropagates(t *testing.T) {
	remoteErr := &RemoteError{StatusCode: 503}
	resolver, _ := NewResolver(&fakeResourceAPI{listErr: remoteErr}, OrderSmallest)

	_, err := resolver.BestResourceURL(context.Background(), "v1")
	if errors.Is(err, ErrNoResource) {
		t.Fatal("remote failure must not look like a missing resource")
	}
	var got *RemoteError
	if !errors.As(err, &got) || got.StatusCode != 503 {
		t.Fatalf("expected RemoteError 503, got %v", err)
	}
}

func TestNewResolverRejectsUnknownOrder(t *testing.T) {
	if _, err := NewResolver(&fakeResourceAPI{}, "biggest"); err == nil {
		t.Fatal("expected error for unknown ordering policy")
	}
}
