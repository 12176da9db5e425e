package epub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBook_TOC_NCX(t *testing.T) {
	b := openTestBook(t, minimalBookFiles())

	toc := b.TOC()
	require.Len(t, toc, 2)
	assert.Equal(t, "Chapter One", toc[0].Title)
	assert.Equal(t, "OEBPS/text/ch1.xhtml", toc[0].Path)
	assert.Equal(t, "Chapter Two", toc[1].Title)
	assert.Empty(t, b.NavPath())
}

// TestBook_TOC_NCXNested flattens nested navPoints depth-first.
func TestBook_TOC_NCXNested(t *testing.T) {
	files := minimalBookFiles()
	files["OEBPS/toc.ncx"] = `<?xml version="1.0"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="np1">
      <navLabel><text>Part I</text></navLabel>
      <content src="text/ch1.xhtml"/>
      <navPoint id="np1a">
        <navLabel><text>Section 1.1</text></navLabel>
        <content src="text/ch1.xhtml#s1"/>
      </navPoint>
    </navPoint>
    <navPoint id="np2">
      <navLabel><text>Part II</text></navLabel>
      <content src="text/ch2.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`

	b := openTestBook(t, files)
	toc := b.TOC()
	require.Len(t, toc, 3)
	assert.Equal(t, []string{"Part I", "Section 1.1", "Part II"}, []string{toc[0].Title, toc[1].Title, toc[2].Title})
	assert.Equal(t, "s1", toc[1].Fragment)
	assert.Equal(t, "OEBPS/text/ch1.xhtml", toc[1].Path)
}

// TestBook_TOC_NavDocument prefers the EPUB 3 nav document over the NCX
// and records its path.
func TestBook_TOC_NavDocument(t *testing.T) {
	files := minimalBookFiles()
	files["OEBPS/content.opf"] = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" xmlns:dc="http://purl.org/dc/elements/1.1/" version="3.0">
  <metadata><dc:title>T</dc:title></metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="ch1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="text/ch2.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
  </spine>
</package>`
	files["OEBPS/nav.xhtml"] = `<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<body>
  <nav epub:type="toc">
    <ol>
      <li><a href="text/ch1.xhtml">Opening</a></li>
      <li><a href="text/ch2.xhtml#part2">Closing</a>
        <ol><li><a href="text/ch2.xhtml#end">The End</a></li></ol>
      </li>
    </ol>
  </nav>
  <nav epub:type="landmarks">
    <ol><li><a href="text/ch1.xhtml">Ignored</a></li></ol>
  </nav>
</body>
</html>`

	b := openTestBook(t, files)

	assert.Equal(t, "OEBPS/nav.xhtml", b.NavPath())
	toc := b.TOC()
	require.Len(t, toc, 3)
	assert.Equal(t, "Opening", toc[0].Title)
	assert.Equal(t, "OEBPS/text/ch1.xhtml", toc[0].Path)
	assert.Equal(t, "Closing", toc[1].Title)
	assert.Equal(t, "part2", toc[1].Fragment)
	assert.Equal(t, "The End", toc[2].Title)
}

// TestBook_TOC_NavFallsBackToNCX uses the NCX when the nav document is
// present but holds no toc nav.
func TestBook_TOC_NavFallsBackToNCX(t *testing.T) {
	files := minimalBookFiles()
	files["OEBPS/content.opf"] = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" xmlns:dc="http://purl.org/dc/elements/1.1/" version="3.0">
  <metadata><dc:title>T</dc:title></metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="ch1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="text/ch2.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
  </spine>
</package>`
	files["OEBPS/nav.xhtml"] = `<html><body><nav epub:type="landmarks"><ol><li><a href="text/ch1.xhtml">X</a></li></ol></nav></body></html>`

	b := openTestBook(t, files)

	assert.Equal(t, "OEBPS/nav.xhtml", b.NavPath())
	toc := b.TOC()
	require.Len(t, toc, 2)
	assert.Equal(t, "Chapter One", toc[0].Title)
}

// TestBook_TOC_Missing leaves the TOC empty without failing Open.
func TestBook_TOC_Missing(t *testing.T) {
	files := minimalBookFiles()
	delete(files, "OEBPS/toc.ncx")

	b := openTestBook(t, files)
	assert.Empty(t, b.TOC())
}

func TestParseNCX_FragmentOnly(t *testing.T) {
	data := []byte(`<?xml version="1.0"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/">
  <navMap>
    <navPoint><navLabel><text>Here</text></navLabel><content src="#anchor"/></navPoint>
  </navMap>
</ncx>`)

	entries, err := parseNCX(data, "OEBPS/toc.ncx")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "OEBPS/toc.ncx", entries[0].Path)
	assert.Equal(t, "anchor", entries[0].Fragment)
}

func TestParseNCX_Malformed(t *testing.T) {
	_, err := parseNCX([]byte(`<ncx><navMap>`), "toc.ncx")
	assert.Error(t, err)
}

func TestTocEntry(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		href     string
		base     string
		wantPath string
		wantFrag string
		wantOK   bool
	}{
		{
			name:     "relative href",
			title:    "One",
			href:     "ch1.xhtml",
			base:     "OEBPS/toc.ncx",
			wantPath: "OEBPS/ch1.xhtml",
			wantOK:   true,
		},
		{
			name:     "href with fragment",
			title:    "Two",
			href:     "ch2.xhtml#top",
			base:     "OEBPS/toc.ncx",
			wantPath: "OEBPS/ch2.xhtml",
			wantFrag: "top",
			wantOK:   true,
		},
		{
			name:   "empty href",
			title:  "None",
			href:   "",
			base:   "OEBPS/toc.ncx",
			wantOK: false,
		},
		{
			name:   "escaping href",
			title:  "Evil",
			href:   "../../secret.xhtml",
			base:   "OEBPS/toc.ncx",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := tocEntry(tt.title, tt.href, tt.base)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantPath, e.Path)
				assert.Equal(t, tt.wantFrag, e.Fragment)
			}
		})
	}
}
