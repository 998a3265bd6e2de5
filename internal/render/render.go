// Package render turns view descriptors into displayable images. The layout
// engine proper is an external concern; this package defines its boundary
// and ships a minimal SVG implementation so the server is self-contained.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/frameforge/giftstorage/internal/identity"
)

// Renderer produces the images referenced by frame views.
type Renderer interface {
	// Profile renders the confirm step's preview for a resolved user.
	Profile(user *identity.User) (data []byte, contentType string, err error)
	// View renders a named static view (entry, notfound, pending, success).
	View(name string) (data []byte, contentType string, err error)
}

const svgContentType = "image/svg+xml"

var profileTmpl = template.Must(template.New("profile").Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="1200" height="630" viewBox="0 0 1200 630">
<rect width="1200" height="630" fill="#1a1a2e"/>
{{if .PfpURL}}<image href="{{.PfpURL}}" x="80" y="165" width="300" height="300" clip-path="circle(150px at 150px 150px)"/>{{end}}
<text x="440" y="280" font-family="sans-serif" font-size="64" fill="#ffffff">{{.DisplayName}}</text>
<text x="440" y="360" font-family="sans-serif" font-size="40" fill="#9a9ab0">@{{.Username}}</text>
<text x="440" y="460" font-family="sans-serif" font-size="32" fill="#e0e0f0">Gift 1 storage unit to this user?</text>
</svg>
`))

var viewTexts = map[string][2]string{
	"entry":    {"Gift Storage", "Search for a user to gift storage to"},
	"notfound": {"User not found!", "Try searching for another username"},
	"pending":  {"Payment pending", "Waiting for on-chain confirmation. Press Refresh."},
	"success":  {"Storage gifted!", "The payment settled on-chain"},
}

var viewTmpl = template.Must(template.New("view").Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="1200" height="630" viewBox="0 0 1200 630">
<rect width="1200" height="630" fill="#1a1a2e"/>
<text x="600" y="280" text-anchor="middle" font-family="sans-serif" font-size="72" fill="#ffffff">{{.Heading}}</text>
<text x="600" y="380" text-anchor="middle" font-family="sans-serif" font-size="36" fill="#9a9ab0">{{.Subtext}}</text>
</svg>
`))

// SVG is the built-in Renderer.
type SVG struct{}

// NewSVG creates the built-in SVG renderer.
func NewSVG() *SVG { return &SVG{} }

// Profile renders the profile preview.
func (s *SVG) Profile(user *identity.User) ([]byte, string, error) {
	name := user.DisplayName
	if name == "" {
		name = user.Username
	}
	var buf bytes.Buffer
	err := profileTmpl.Execute(&buf, map[string]string{
		"DisplayName": name,
		"Username":    user.Username,
		"PfpURL":      user.PfpURL,
	})
	if err != nil {
		return nil, "", fmt.Errorf("render profile: %w", err)
	}
	return buf.Bytes(), svgContentType, nil
}

// View renders a named static view.
func (s *SVG) View(name string) ([]byte, string, error) {
	texts, ok := viewTexts[name]
	if !ok {
		return nil, "", fmt.Errorf("unknown view %q", name)
	}
	var buf bytes.Buffer
	err := viewTmpl.Execute(&buf, map[string]string{
		"Heading": texts[0],
		"Subtext": texts[1],
	})
	if err != nil {
		return nil, "", fmt.Errorf("render view: %w", err)
	}
	return buf.Bytes(), svgContentType, nil
}
