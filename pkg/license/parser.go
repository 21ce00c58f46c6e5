package license

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/beevik/etree"

	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
)

// Field names shared by the XML and key=value license formats.
const (
	FieldCompanyName  = "CompanyName"
	FieldCompanyEmail = "CompanyEmail"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser extracts the identity from license bytes.
type Parser struct {
	allowPlaceholder bool
}

// NewParser creates a parser. With allowPlaceholder set, unreadable licenses
// yield the placeholder identity instead of a ParseDegraded failure.
func NewParser(allowPlaceholder bool) *Parser {
	return &Parser{allowPlaceholder: allowPlaceholder}
}

// Parse tries the XML layout first and then a line-oriented key=value scan.
func (p *Parser) Parse(artifact *Artifact) (Identity, error) {
	data := bytes.TrimPrefix(artifact.RawBytes, utf8BOM)

	if id, ok := parseXML(data); ok {
		slog.Info("license_parsed", "format", "xml", "company", id.OrganizationName)
		return id, nil
	}
	slog.Info("license_not_xml", "path", artifact.SourcePath)

	if id, ok := parseKeyValue(data); ok {
		slog.Info("license_parsed", "format", "key_value", "company", id.OrganizationName)
		return id, nil
	}

	if p.allowPlaceholder {
		slog.Warn("license_placeholder_identity",
			"path", artifact.SourcePath,
			"company", PlaceholderOrganization,
			"email", PlaceholderEmail)
		return Identity{OrganizationName: PlaceholderOrganization, ContactEmail: PlaceholderEmail}, nil
	}

	slog.Error("license_parse_failed", "path", artifact.SourcePath)
	return Identity{}, errors.Newf(errors.KindParseDegraded, "parse license",
		"%s has no readable %s and %s", artifact.SourcePath, FieldCompanyName, FieldCompanyEmail)
}

func parseXML(data []byte) (Identity, bool) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return Identity{}, false
	}
	root := doc.Root()
	if root == nil {
		return Identity{}, false
	}

	id := Identity{
		OrganizationName: childText(root, FieldCompanyName),
		ContactEmail:     childText(root, FieldCompanyEmail),
	}
	return id, id.Validate() == nil
}

func childText(parent *etree.Element, tag string) string {
	el := parent.SelectElement(tag)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// parseKeyValue scans CompanyName=/CompanyEmail= lines. Keys match without
// regard to case and the last occurrence of a key wins.
func parseKeyValue(data []byte) (Identity, bool) {
	namePrefix := strings.ToLower(FieldCompanyName) + "="
	emailPrefix := strings.ToLower(FieldCompanyEmail) + "="

	var id Identity
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case hasPrefixFold(line, namePrefix):
			id.OrganizationName = strings.TrimSpace(line[len(namePrefix):])
		case hasPrefixFold(line, emailPrefix):
			id.ContactEmail = strings.TrimSpace(line[len(emailPrefix):])
		}
	}
	return id, id.Validate() == nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
