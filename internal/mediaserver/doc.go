// Package mediaserver implements the media platform API client: catalog
// listing, resource resolution for downloadable media, and subtitle track
// management. Authentication uses the platform's per-application API key
// passed with every call.
package mediaserver
