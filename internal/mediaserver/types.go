package mediaserver

// Channel is a container in the platform catalog.
type Channel struct {
	OID   string `json:"oid"`
	Title string `json:"title"`
}

// Video is a media object in the platform catalog.
type Video struct {
	OID   string `json:"oid"`
	Title string `json:"title"`
}

// ChannelContent is one level of the catalog: direct sub-channels and videos.
type ChannelContent struct {
	Channels []Channel `json:"channels"`
	Videos   []Video   `json:"videos"`
}

// Resource is one stored rendition of a video.
type Resource struct {
	Format   string `json:"format"`
	FileSize int64  `json:"file_size"`
	Path     string `json:"file"`
}

// Subtitle is a subtitle track attached to a video.
type Subtitle struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Lang  string `json:"lang"`
}
