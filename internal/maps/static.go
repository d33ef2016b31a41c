package maps

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/staticmap"

// DefaultSize is the image size used for activity and route maps.
const DefaultSize = "640x640"

// PathColors are the stroke colors cycled through when several paths
// are drawn on one map (RGBA hex, half-transparent).
var PathColors = []string{"0x0000FF80", "0xFF000080", "0x00FF0080"}

// Path is one encoded polyline to draw, with an optional stroke color.
type Path struct {
	Polyline string
	Color    string
}

// Renderer fetches static map images for encoded polylines.
type Renderer struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

func NewRenderer(apiKey string) *Renderer {
	return &Renderer{
		APIKey:  apiKey,
		BaseURL: defaultBaseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Render returns PNG bytes for a map containing every given path.
func (r *Renderer) Render(ctx context.Context, paths []Path, size string) ([]byte, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths to render")
	}
	if size == "" {
		size = DefaultSize
	}

	q := url.Values{}
	q.Set("size", size)
	q.Set("maptype", "roadmap")
	q.Set("key", r.APIKey)
	for _, p := range paths {
		if p.Color != "" {
			q.Add("path", fmt.Sprintf("color:%s|weight:2|enc:%s", p.Color, p.Polyline))
		} else {
			q.Add("path", "enc:"+p.Polyline)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create map request: %w", err)
	}

	resp, err := r.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("map request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("map request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}
