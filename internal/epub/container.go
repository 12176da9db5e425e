package epub

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/quirelabs/quire/internal/core/domain"
)

// containerPath is the well-known location of container.xml.
const containerPath = "META-INF/container.xml"

// opfMediaType is the media type of the package document.
const opfMediaType = "application/oebps-package+xml"

// containerXML models META-INF/container.xml.
type containerXML struct {
	XMLName   xml.Name        `xml:"container"`
	RootFiles []containerRoot `xml:"rootfiles>rootfile"`
}

type containerRoot struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// parseContainer locates the OPF path. It reads container.xml when
// present and otherwise falls back to scanning for a .opf entry, which
// recovers books with a damaged META-INF.
func parseContainer(zr *zip.Reader) (string, error) {
	if f := findEntry(zr, containerPath); f != nil {
		return parseContainerXML(f)
	}
	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".opf") {
			return f.Name, nil
		}
	}
	return "", fmt.Errorf("epub: no container.xml and no OPF entry: %w", domain.ErrNotEPUB)
}

// parseContainerXML returns the full-path of the package rootfile,
// preferring entries with the OPF media type.
func parseContainerXML(f *zip.File) (string, error) {
	data, err := readZipFile(f)
	if err != nil {
		return "", fmt.Errorf("epub: read container.xml: %w", err)
	}

	var c containerXML
	if err := xml.Unmarshal(stripBOM(data), &c); err != nil {
		return "", fmt.Errorf("epub: parse container.xml: %w", domain.ErrNotEPUB)
	}

	var fallback string
	for _, rf := range c.RootFiles {
		full := strings.TrimSpace(rf.FullPath)
		if full == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rf.MediaType), opfMediaType) {
			return full, nil
		}
		if fallback == "" {
			fallback = full
		}
	}
	if fallback == "" {
		return "", fmt.Errorf("epub: container.xml names no rootfile: %w", domain.ErrNotEPUB)
	}
	return fallback, nil
}

// findEntry looks up a ZIP entry by name, case-insensitively.
func findEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	lower := strings.ToLower(name)
	for _, f := range zr.File {
		if strings.ToLower(f.Name) == lower {
			return f
		}
	}
	return nil
}
