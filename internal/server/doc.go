// Package server exposes the HTTP surface of the bridge: the enrichment
// webhook, the media export endpoint the enrichment service downloads from,
// the portal redirect, and a CSV report of finished requests.
package server
