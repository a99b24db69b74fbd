package loader

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Source describes where an image comes from. Exactly one of Data, Path or URL is used,
// checked in that order. URL accepts http(s) and data: URLs.
type Source struct {
	Name string
	Data []byte
	Path string
	URL  string
}

func FromBytes(name string, data []byte) Source {
	return Source{Name: name, Data: data}
}

func FromPath(path string) Source {
	return Source{Path: path}
}

func FromURL(rawURL string) Source {
	return Source{URL: rawURL}
}

func (s Source) Empty() bool {
	return len(s.Data) == 0 && s.Path == "" && s.URL == ""
}

func (s Source) String() string {
	switch {
	case s.Name != "":
		return s.Name
	case len(s.Data) > 0:
		return fmt.Sprintf("<%d bytes>", len(s.Data))
	case s.Path != "":
		return s.Path
	case strings.HasPrefix(s.URL, "data:"):
		return "<data url>"
	default:
		return s.URL
	}
}

func isDataURL(raw string) bool {
	return strings.HasPrefix(strings.ToLower(raw), "data:")
}

// decodeDataURL handles data:[<mediatype>][;base64],<payload>.
func decodeDataURL(raw string) ([]byte, error) {
	comma := strings.IndexByte(raw, ',')
	if comma < 0 {
		return nil, errors.New("malformed data url")
	}
	meta, payload := raw[len("data:"):comma], raw[comma+1:]

	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("data url base64: %w", err)
		}
		return data, nil
	}

	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("data url payload: %w", err)
	}
	return []byte(unescaped), nil
}
