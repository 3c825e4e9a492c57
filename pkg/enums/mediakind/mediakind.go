package mediakind

// MediaKind distinguishes the two delivery mechanics a resolved stream URL
// can point at. It is decided once at resolution time and carried through the
// pipeline; the retriever never re-sniffs the URL.
type MediaKind string

const (
	// DirectFile is a progressive HTTP download of a single media file.
	DirectFile MediaKind = "direct"
	// SegmentedPlaylist is an HLS manifest whose segments must be fetched
	// and remuxed into a single container.
	SegmentedPlaylist MediaKind = "playlist"
)

func (k MediaKind) String() string {
	return string(k)
}
