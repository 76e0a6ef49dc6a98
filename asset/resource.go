package asset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// The Resource type wraps a streamable scene file or remote resource.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Returns the lower-cased file extension of the resource path including the
// leading dot. Query strings of remote resources are ignored.
func (r *Resource) Ext() string {
	return strings.ToLower(path.Ext(r.url.Path))
}

// Returns true if the Resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Create a new Resource data stream. If relTo is specified and pathToResource
// does not define a scheme, then the path to the new Resource will be generated
// by concatenating the base path of relTo and pathToResource.
//
// The caller must make sure to close the returned resource.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	return NewResourceContext(context.Background(), pathToResource, relTo)
}

// Create a new Resource data stream. Remote resources are fetched using the
// supplied context.
func NewResourceContext(ctx context.Context, pathToResource string, relTo *Resource) (*Resource, error) {
	// Replace backslashes with forward slashes and try parsing as a URL
	resURL, err := url.Parse(strings.Replace(pathToResource, `\`, `/`, -1))
	if err != nil {
		return nil, fmt.Errorf("resource: could not parse %q: %w", pathToResource, err)
	}

	// If this is a relative url, clone parent url and adjust its path
	if resURL.Scheme == "" && relTo != nil && !filepath.IsAbs(resURL.Path) {
		relPath := resURL.Path
		resURL, _ = url.Parse(relTo.url.String())
		prefix := resURL.Path
		if resURL.Scheme == "" {
			prefix, err = filepath.Abs(relTo.url.String())
			if err != nil {
				return nil, fmt.Errorf("resource: could not detect abs path for %s: %w", relTo.url.String(), err)
			}
		}
		resURL.Path = path.Join(filepath.ToSlash(filepath.Dir(prefix)), relPath)
	}

	var reader io.ReadCloser
	switch resURL.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(resURL.Path))
		if err != nil {
			return nil, err
		}
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, resURL.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %w", resURL.String(), err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %w", resURL.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("resource: could not fetch '%s': status %d", resURL.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, fmt.Errorf("resource: unsupported scheme '%s'", resURL.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        resURL,
	}, nil
}

// Create a resource from a reader.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	resURL, err := url.Parse(name)
	if err != nil {
		resURL = &url.URL{Path: name}
	}
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        resURL,
	}
}
