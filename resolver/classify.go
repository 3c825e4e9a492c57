package resolver

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/ryoka/teragrab-bot/common/utils/strutil"
	"github.com/ryoka/teragrab-bot/pkg/enums/mediakind"
)

// SharePattern matches share links across the known mirror domain family.
const SharePattern = `(?i)https?://(?:www\.)?(?:mirrobox\.com|nephobox\.com|freeterabox\.com|1024tera\.com|1024terabox\.com|terabox\.com|4funbox\.com|terabox\.app|terabox\.fun|tibibox\.com|momerybox\.com|teraboxapp\.com|teraboxlink\.com|terasharelink\.com)/(?:s/[\w-]+|sharing/link\?surl=[\w-]+)[^\s"'<>]*`

var shareLinkRe = regexp.MustCompile(SharePattern)

var urlRe = regexp.MustCompile(`https?://[^\s"'<>]+`)

// ExtractShareLink pulls the first supported share link out of free text.
// Returns an empty string when the text contains none.
func ExtractShareLink(text string) string {
	return shareLinkRe.FindString(strings.TrimSpace(text))
}

var videoExts = []string{".mp4", ".mkv", ".avi", ".mov", ".webm", ".ts"}

// classifyKind decides the delivery mechanic of a resolved media URL. This
// decision is made exactly once, here; the retriever trusts it. Mistaking a
// playlist for a direct file saves a few kilobytes of manifest text as if it
// were the finished video, so playlist markers are checked first.
func classifyKind(mediaURL, contentType string) mediakind.MediaKind {
	if strings.Contains(strings.ToLower(contentType), "mpegurl") {
		return mediakind.SegmentedPlaylist
	}
	u, err := url.Parse(mediaURL)
	if err != nil {
		return mediakind.DirectFile
	}
	if strings.EqualFold(path.Ext(u.Path), ".m3u8") {
		return mediakind.SegmentedPlaylist
	}
	for _, vals := range u.Query() {
		for _, v := range vals {
			lower := strings.ToLower(v)
			if lower == "m3u8" || lower == "hls" || strings.HasSuffix(lower, ".m3u8") {
				return mediakind.SegmentedPlaylist
			}
		}
	}
	return mediakind.DirectFile
}

// suggestName produces a safe output filename from the declared name or, when
// absent, the media URL path. Playlist URLs never yield a usable name, so
// those fall back to the default.
func suggestName(declared, mediaURL string, kind mediakind.MediaKind) string {
	name := strutil.SanitizeFilename(strutil.DecodeMaybeGBK(declared))
	if name == "" && kind == mediakind.DirectFile {
		if u, err := url.Parse(mediaURL); err == nil {
			base := path.Base(u.Path)
			if base != "." && base != "/" {
				if decoded, err := url.PathUnescape(base); err == nil {
					base = decoded
				}
				name = strutil.SanitizeFilename(strutil.DecodeMaybeGBK(base))
			}
		}
	}
	if name == "" {
		name = "terabox_video"
	}
	if !hasVideoExt(name) {
		name += ".mp4"
	}
	return name
}

func hasVideoExt(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range videoExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
