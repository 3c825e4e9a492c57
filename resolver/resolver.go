package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/imroc/req/v3"
	"github.com/ryoka/teragrab-bot/config"
	"github.com/ryoka/teragrab-bot/pkg/stream"
)

var (
	// ErrInvalidLink means the input text contains no supported share link.
	ErrInvalidLink = errors.New("resolver: not a supported share link")
	// ErrUnreachable means the resolution API could not be reached or
	// answered with a non-success status. Retrying may help.
	ErrUnreachable = errors.New("resolver: resolution api unreachable")
	// ErrNoStreamURL means the API answered but no usable media URL could
	// be extracted. The resolver fails closed rather than guessing.
	ErrNoStreamURL = errors.New("resolver: no usable stream url in response")
)

// IsTransient reports whether a resolution failure is worth one retry. Only
// reachability failures qualify; an answer without a stream URL will not get
// better by asking again.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// Resolver turns a share link into a stream descriptor via the external
// resolution API. It holds no state besides the HTTP client and never caches
// descriptors: their media URLs expire soon and are single-use.
type Resolver struct {
	client  *req.Client
	baseURL string
	key     string
}

func New() *Resolver {
	c := req.C().
		SetTimeout(time.Duration(config.C().API.Timeout) * time.Second).
		ImpersonateChrome()
	return NewWithClient(c, config.C().API.BaseURL, config.C().API.Key)
}

func NewWithClient(client *req.Client, baseURL, key string) *Resolver {
	return &Resolver{
		client:  client,
		baseURL: baseURL,
		key:     key,
	}
}

// Resolve validates the share link, queries the resolution API and extracts
// a media URL plus delivery kind. It performs no retries; the caller decides
// whether a fresh resolution is warranted.
func (r *Resolver) Resolve(ctx context.Context, sourceURL string) (*stream.Descriptor, error) {
	logger := log.FromContext(ctx)
	link := ExtractShareLink(sourceURL)
	if link == "" {
		return nil, ErrInvalidLink
	}

	apiURL := fmt.Sprintf("%s?%s", r.baseURL, url.Values{
		"url": {link},
		"key": {r.key},
	}.Encode())
	logger.Debugf("Resolving share link %s", link)

	resp, err := r.client.R().SetContext(ctx).Get(apiURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	body, err := resp.ToString()
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
	}
	if !resp.IsSuccessState() {
		// Some deployments answer with a redirect straight to the stream.
		if final := resp.Response.Request.URL.String(); final != apiURL {
			return r.describe(link, final, "", ""), nil
		}
		return nil, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	if mediaURL, name, hint := extractFromJSON(body); mediaURL != "" {
		return r.describe(link, mediaURL, name, hint), nil
	}

	// Not JSON, or JSON without known fields: scan the body for the first
	// URL, then fall back to the final redirect target.
	if candidate := urlRe.FindString(body); candidate != "" {
		logger.Debugf("Found candidate stream URL in response body")
		return r.describe(link, candidate, "", ""), nil
	}
	if final := resp.Response.Request.URL.String(); final != apiURL {
		return r.describe(link, final, "", ""), nil
	}

	return nil, ErrNoStreamURL
}

func (r *Resolver) describe(sourceURL, mediaURL, name, contentTypeHint string) *stream.Descriptor {
	kind := classifyKind(mediaURL, contentTypeHint)
	return &stream.Descriptor{
		SourceURL:     sourceURL,
		MediaURL:      mediaURL,
		Kind:          kind,
		SuggestedName: suggestName(name, mediaURL, kind),
	}
}

var streamURLKeys = []string{"url", "stream_url", "play_url", "video_url", "dlink", "direct_link"}
var nameKeys = []string{"filename", "title", "name", "server_filename"}
var typeKeys = []string{"content_type", "mime_type", "format"}

// extractFromJSON tries the handful of response shapes seen from resolution
// API deployments: flat fields, or the same fields nested under "data" or
// "result". The schema is upstream-opaque, so absence of any field is fine.
func extractFromJSON(body string) (mediaURL, name, contentTypeHint string) {
	var data map[string]any
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return "", "", ""
	}

	scopes := []map[string]any{data}
	for _, wrap := range []string{"data", "result"} {
		if nested, ok := data[wrap].(map[string]any); ok {
			scopes = append(scopes, nested)
		}
	}

	pick := func(keys []string) string {
		for _, scope := range scopes {
			for _, key := range keys {
				if v, ok := scope[key].(string); ok && v != "" {
					return v
				}
			}
		}
		return ""
	}

	return pick(streamURLKeys), pick(nameKeys), pick(typeKeys)
}
