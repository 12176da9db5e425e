package epub

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/quirelabs/quire/internal/core/domain"
)

// encryptionPath is the standard location of the encryption descriptor.
const encryptionPath = "META-INF/encryption.xml"

// sinfPath marks Apple FairPlay protection.
const sinfPath = "META-INF/sinf.xml"

// fontObfuscationAlgorithms are encryption algorithm URIs used for font
// mangling only. Books using these are readable without keys.
var fontObfuscationAlgorithms = map[string]bool{
	"http://www.idpf.org/2008/embedding": true,
	"http://ns.adobe.com/pdf/enc#RC":     true,
}

// drmSignatures are namespace prefixes of known DRM schemes.
var drmSignatures = []string{
	"http://ns.adobe.com/adept",
	"http://readium.org/2014/01/lcp",
}

type xmlEncryption struct {
	XMLName       xml.Name           `xml:"encryption"`
	EncryptedData []xmlEncryptedData `xml:"EncryptedData"`
}

type xmlEncryptedData struct {
	EncryptionMethod xmlEncryptionMethod `xml:"EncryptionMethod"`
	KeyInfo          xmlKeyInfo          `xml:"KeyInfo"`
}

type xmlEncryptionMethod struct {
	Algorithm string `xml:"Algorithm,attr"`
}

type xmlKeyInfo struct {
	InnerXML string `xml:",innerxml"`
}

// checkDRM inspects the archive for DRM. Font obfuscation is tolerated;
// any other encryption, an Apple sinf.xml, or an unparseable
// encryption.xml yields domain.ErrDRMProtected.
func checkDRM(zr *zip.Reader) error {
	if findEntry(zr, sinfPath) != nil {
		return fmt.Errorf("epub: apple fairplay protection: %w", domain.ErrDRMProtected)
	}

	f := findEntry(zr, encryptionPath)
	if f == nil {
		return nil
	}

	data, err := readZipFile(f)
	if err != nil {
		return fmt.Errorf("epub: read encryption.xml: %w", err)
	}

	var enc xmlEncryption
	if err := xml.Unmarshal(stripBOM(data), &enc); err != nil {
		// Unparseable encryption descriptor: assume protected.
		return fmt.Errorf("epub: malformed encryption.xml: %w", domain.ErrDRMProtected)
	}

	for _, ed := range enc.EncryptedData {
		algo := ed.EncryptionMethod.Algorithm
		if fontObfuscationAlgorithms[algo] {
			continue
		}
		if isDRMSignature(algo) || isDRMSignature(ed.KeyInfo.InnerXML) {
			return fmt.Errorf("epub: drm encryption %s: %w", algo, domain.ErrDRMProtected)
		}
		return fmt.Errorf("epub: encrypted entry (%s): %w", algo, domain.ErrDRMProtected)
	}
	return nil
}

func isDRMSignature(s string) bool {
	for _, sig := range drmSignatures {
		if strings.Contains(s, sig) {
			return true
		}
	}
	return false
}
