package content

import (
	"encoding/json"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/fsutil"
)

// Kind is the entry type reported by the content host.
type Kind int

// Entry kinds.
const (
	KindUnsupported Kind = iota
	KindFile
	KindDirectory
)

// String returns the listing name of the kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "dir"
	default:
		return "unsupported"
	}
}

// Shape tells the fetcher how the bytes of an item are obtained.
type Shape int

// Item shapes.
const (
	// ShapeUnsupported items (symlinks, submodules, unknown types) are skipped.
	ShapeUnsupported Shape = iota
	// ShapeDirectory items are listed and walked.
	ShapeDirectory
	// ShapeFileDirect items are fetched from their download URL.
	ShapeFileDirect
	// ShapeFileIndirect items are fetched from their API URL and may come
	// back wrapped in a JSON envelope.
	ShapeFileIndirect
	// ShapeFileInline items already carry their bytes.
	ShapeFileInline
)

// String returns a short name for the shape.
func (s Shape) String() string {
	switch s {
	case ShapeDirectory:
		return "directory"
	case ShapeFileDirect:
		return "file-direct"
	case ShapeFileIndirect:
		return "file-indirect"
	case ShapeFileInline:
		return "file-inline"
	default:
		return "unsupported"
	}
}

// Item is one entry of a listing. Items are built through the constructors,
// which guarantee that directories never carry a download URL and that paths
// are normalized.
type Item struct {
	path        string
	name        string
	kind        Kind
	apiURL      string
	downloadURL string
	size        int64
	content     []byte
	inline      bool
	rawType     string
}

// NewDirectory creates a directory item.
func NewDirectory(path, name, apiURL string) Item {
	return Item{path: fsutil.NormalizeRelPath(path), name: name, kind: KindDirectory, apiURL: apiURL}
}

// NewFile creates a file item. An empty downloadURL makes it indirect.
func NewFile(path, name, apiURL, downloadURL string, size int64) Item {
	return Item{
		path:        fsutil.NormalizeRelPath(path),
		name:        name,
		kind:        KindFile,
		apiURL:      apiURL,
		downloadURL: downloadURL,
		size:        size,
	}
}

// NewInlineFile creates a file item whose bytes are already known.
func NewInlineFile(path, name, apiURL string, data []byte) Item {
	return Item{
		path:    fsutil.NormalizeRelPath(path),
		name:    name,
		kind:    KindFile,
		apiURL:  apiURL,
		size:    int64(len(data)),
		content: data,
		inline:  true,
	}
}

// NewUnsupported creates an item the walker skips.
func NewUnsupported(path, name, apiURL, rawType string) Item {
	return Item{path: fsutil.NormalizeRelPath(path), name: name, apiURL: apiURL, rawType: rawType}
}

// Path returns the item's path within the repository.
func (i Item) Path() string { return i.path }

// Name returns the item's base name.
func (i Item) Name() string { return i.name }

// Kind returns the entry kind.
func (i Item) Kind() Kind { return i.kind }

// APIURL returns the content API URL of the item.
func (i Item) APIURL() string { return i.apiURL }

// DownloadURL returns the direct download URL, empty for directories and
// indirect files.
func (i Item) DownloadURL() string { return i.downloadURL }

// Size returns the size reported by the host.
func (i Item) Size() int64 { return i.size }

// Content returns the inline bytes of a ShapeFileInline item.
func (i Item) Content() []byte {
	if !i.inline {
		return nil
	}
	return i.content
}

// Shape classifies the item.
func (i Item) Shape() Shape {
	switch i.kind {
	case KindDirectory:
		return ShapeDirectory
	case KindFile:
		switch {
		case i.inline:
			return ShapeFileInline
		case i.downloadURL != "":
			return ShapeFileDirect
		default:
			return ShapeFileIndirect
		}
	default:
		return ShapeUnsupported
	}
}

// UnsupportedType returns the host's type string for unsupported items.
func (i Item) UnsupportedType() string {
	if i.kind != KindUnsupported {
		return ""
	}
	return i.rawType
}

type itemJSON struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	URL         string `json:"url,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	Size        int64  `json:"size"`
}

// MarshalJSON renders the item in the content host's listing shape.
func (i Item) MarshalJSON() ([]byte, error) {
	typ := i.kind.String()
	if i.kind == KindUnsupported && i.UnsupportedType() != "" {
		typ = i.UnsupportedType()
	}
	return json.Marshal(itemJSON{
		Name:        i.name,
		Path:        i.path,
		Type:        typ,
		URL:         i.apiURL,
		DownloadURL: i.downloadURL,
		Size:        i.size,
	})
}

// Listing is the result of FetchListing. Single is set when the host
// answered with one object rather than an array, i.e. the URL named a file.
type Listing struct {
	Items  []Item
	Single bool
}
