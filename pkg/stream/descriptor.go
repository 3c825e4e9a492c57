package stream

import "github.com/ryoka/teragrab-bot/pkg/enums/mediakind"

// Descriptor is a resolved, time-limited reference to actual media bytes.
// The media URL carries expiring authentication parameters and is treated as
// single-use: descriptors are never cached or reused across retrieval
// attempts, including retries.
type Descriptor struct {
	SourceURL     string
	MediaURL      string
	Kind          mediakind.MediaKind
	SuggestedName string
}
