package transform

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/quirelabs/quire/internal/epub"
)

// assetIndex resolves image references from chapter documents and
// stylesheets to public asset URLs.
type assetIndex struct {
	// byPath maps ZIP-internal image paths to public URLs.
	byPath map[string]string

	// byBase maps lowercased basenames to public URLs. The first image
	// with a given basename wins.
	byBase map[string]string

	// paths holds the ZIP-internal paths in manifest order, for the
	// substring fallback.
	paths []string

	resolve func(href string) string
}

// collectAssets plans the extraction of every manifest image. Names
// are sanitised and deduplicated; the first image keeps the plain name
// and later collisions get a numeric suffix.
func collectAssets(book *epub.Book, assetURL func(name string) string) ([]Asset, *assetIndex) {
	index := &assetIndex{
		byPath:  make(map[string]string),
		byBase:  make(map[string]string),
		resolve: book.Resolve,
	}

	taken := make(map[string]bool)
	var assets []Asset
	for _, item := range book.Images() {
		name := uniqueAssetName(safeAssetName(path.Base(item.Path)), taken)
		taken[name] = true

		asset := Asset{
			Name:    name,
			ZipPath: item.Path,
			URL:     assetURL(name),
		}
		assets = append(assets, asset)

		index.byPath[item.Path] = asset.URL
		index.paths = append(index.paths, item.Path)
		base := strings.ToLower(path.Base(item.Path))
		if _, seen := index.byBase[base]; !seen {
			index.byBase[base] = asset.URL
		}
	}
	return assets, index
}

// detectCover maps the book's cover image to its stored asset name.
func detectCover(book *epub.Book, assets []Asset) string {
	item, ok := book.Cover()
	if !ok {
		return ""
	}
	for _, a := range assets {
		if a.ZipPath == item.Path {
			return a.Name
		}
	}
	return ""
}

// safeAssetName replaces every byte outside [A-Za-z0-9._-] with an
// underscore so asset names are safe in URLs and on any filesystem.
func safeAssetName(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '.', c == '_', c == '-':
			sb.WriteByte(c)
		default:
			sb.WriteByte('_')
		}
	}
	s := sb.String()
	if s == "" || s == "." || s == ".." {
		return "asset"
	}
	return s
}

// uniqueAssetName appends _2, _3, ... before the extension until the
// name is free.
func uniqueAssetName(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if !taken[candidate] {
			return candidate
		}
	}
}

// lookup resolves an image reference from chapter markup. The ref is
// normalised first, then matched exact against the OPF-relative path,
// by basename, and finally by unique substring.
func (idx *assetIndex) lookup(ref string) (string, bool) {
	norm := normaliseAssetRef(ref)
	if norm == "" {
		return "", false
	}

	if resolved := idx.resolve(norm); resolved != "" {
		if u, ok := idx.byPath[resolved]; ok {
			return u, true
		}
	}
	if u, ok := idx.byPath[norm]; ok {
		return u, true
	}
	if u, ok := idx.byBase[strings.ToLower(path.Base(norm))]; ok {
		return u, true
	}
	return idx.substringMatch(norm)
}

// substringMatch succeeds only when exactly one asset path contains
// the ref or is contained by it. Ambiguity means no match; rewriting
// to the wrong image is worse than dropping it.
func (idx *assetIndex) substringMatch(norm string) (string, bool) {
	var found string
	count := 0
	for _, p := range idx.paths {
		if strings.Contains(p, norm) || strings.Contains(norm, p) {
			found = p
			count++
			if count > 1 {
				return "", false
			}
		}
	}
	if count == 1 {
		return idx.byPath[found], true
	}
	return "", false
}

// normaliseAssetRef strips leading ../ and ./ runs, the query and
// fragment, and URL escaping.
func normaliseAssetRef(ref string) string {
	ref = strings.TrimSpace(ref)
	for {
		switch {
		case strings.HasPrefix(ref, "../"):
			ref = ref[3:]
		case strings.HasPrefix(ref, "./"):
			ref = ref[2:]
		default:
			if i := strings.IndexAny(ref, "?#"); i >= 0 {
				ref = ref[:i]
			}
			if decoded, err := url.PathUnescape(ref); err == nil {
				ref = decoded
			}
			return ref
		}
	}
}
