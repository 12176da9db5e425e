package epub

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/quirelabs/quire/internal/core/domain"
)

// opfPackage is the root <package> element of the package document.
type opfPackage struct {
	XMLName          xml.Name    `xml:"package"`
	Version          string      `xml:"version,attr"`
	UniqueIdentifier string      `xml:"unique-identifier,attr"`
	Metadata         opfMetadata `xml:"metadata"`
	Manifest         opfManifest `xml:"manifest"`
	Spine            opfSpine    `xml:"spine"`
	Guide            opfGuide    `xml:"guide"`
}

// opfMetadata holds the Dublin Core elements. The namespace-qualified
// tags match both EPUB 2 and EPUB 3 package documents.
type opfMetadata struct {
	Titles       []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creators     []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Languages    []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ language"`
	Identifiers  []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Descriptions []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ description"`
	Metas        []opfMeta      `xml:"meta"`
}

// opfDCElement is a Dublin Core element with the attributes quire uses.
type opfDCElement struct {
	Value string `xml:",chardata"`
	ID    string `xml:"id,attr"`
}

// opfMeta is a <meta> element. EPUB 2 uses name/content pairs; quire
// reads those for cover detection.
type opfMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type opfSpine struct {
	Toc      string            `xml:"toc,attr"`
	ItemRefs []opfSpineItemRef `xml:"itemref"`
}

type opfSpineItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

type opfGuide struct {
	References []opfGuideReference `xml:"reference"`
}

type opfGuideReference struct {
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr"`
}

// parseOPF parses the package document. Named HTML entities are mapped
// to numeric references first because encoding/xml only knows the XML
// predefined five.
func parseOPF(data []byte) (*opfPackage, error) {
	data = stripBOM(preprocessEntities(data))

	var pkg opfPackage
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("epub: parse OPF: %w", domain.ErrNotEPUB)
	}
	if pkg.Version == "" {
		pkg.Version = "2.0"
	}
	return &pkg, nil
}

// extractMetadata flattens the Dublin Core elements into the fields
// quire stores on a Book.
func extractMetadata(pkg *opfPackage) Metadata {
	md := Metadata{}
	if len(pkg.Metadata.Titles) > 0 {
		md.Title = strings.TrimSpace(pkg.Metadata.Titles[0].Value)
	}
	if len(pkg.Metadata.Creators) > 0 {
		md.Author = strings.TrimSpace(pkg.Metadata.Creators[0].Value)
	}
	if len(pkg.Metadata.Languages) > 0 {
		md.Language = strings.TrimSpace(pkg.Metadata.Languages[0].Value)
	}
	if len(pkg.Metadata.Descriptions) > 0 {
		md.Description = strings.TrimSpace(pkg.Metadata.Descriptions[0].Value)
	}
	md.Identifier = pickIdentifier(pkg)
	return md
}

// pickIdentifier returns the identifier the package's unique-identifier
// attribute names, falling back to the first dc:identifier.
func pickIdentifier(pkg *opfPackage) string {
	if pkg.UniqueIdentifier != "" {
		for _, id := range pkg.Metadata.Identifiers {
			if id.ID == pkg.UniqueIdentifier {
				return strings.TrimSpace(id.Value)
			}
		}
	}
	if len(pkg.Metadata.Identifiers) > 0 {
		return strings.TrimSpace(pkg.Metadata.Identifiers[0].Value)
	}
	return ""
}
