package simple

import (
	"bytes"
	"fmt"
	"html"
	"net/url"
	"sort"

	"github.com/ralt/wheelhouse/internal/models"
	"github.com/ralt/wheelhouse/internal/registry"
	"github.com/ralt/wheelhouse/internal/utils"
)

const (
	// IndexFile is the page written in every index directory
	IndexFile = "index.html"

	// PublicKeyFile holds the armored signing key at the index root
	PublicKeyFile = "pubkey.asc"

	// repositoryVersion is the simple API version advertised by every page (PEP 629)
	repositoryVersion = "1.0"
)

// Options controls the rendered output
type Options struct {
	Title       string
	Description string
	Gzip        bool
	PublicKey   []byte
}

// Tree maps slash-separated paths relative to the index root to file contents
type Tree map[string][]byte

// Paths returns the tree's paths in sorted order
func (t Tree) Paths() []string {
	paths := make([]string, 0, len(t))
	for p := range t {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Render builds the complete index tree for reg. It has no side effects and
// returns byte-identical output for identical input.
func Render(opts Options, reg *models.Registry) (Tree, error) {
	type pkg struct {
		name       string
		normalized string
		entry      *models.PackageEntry
	}

	pkgs := make([]pkg, 0, len(reg.Packages))
	for name, entry := range reg.Packages {
		if err := registry.ValidateName(name); err != nil {
			return nil, err
		}
		pkgs = append(pkgs, pkg{name: name, normalized: registry.Normalize(name), entry: entry})
	}
	sort.Slice(pkgs, func(i, j int) bool {
		if pkgs[i].normalized != pkgs[j].normalized {
			return pkgs[i].normalized < pkgs[j].normalized
		}
		return pkgs[i].name < pkgs[j].name
	})

	tree := make(Tree)

	links := make([]link, 0, len(pkgs))
	for _, p := range pkgs {
		// Normalized names keep characters like '#' and '?' that end a URL path
		links = append(links, link{href: url.PathEscape(p.normalized) + "/", text: p.name})
	}
	tree[IndexFile] = renderPage(opts.Title, opts.Description, links)

	for _, p := range pkgs {
		wheelLinks := make([]link, 0, len(p.entry.Wheels))
		for _, w := range p.entry.Wheels {
			wheelLinks = append(wheelLinks, wheelLink(w))
		}
		title := fmt.Sprintf("Links for %s", p.name)
		tree[p.normalized+"/"+IndexFile] = renderPage(title, p.entry.Description, wheelLinks)
	}

	if opts.Gzip {
		for _, path := range tree.Paths() {
			gz, err := utils.GzipCompress(tree[path])
			if err != nil {
				return nil, fmt.Errorf("failed to compress %s: %w", path, err)
			}
			tree[path+".gz"] = gz
		}
	}

	if len(opts.PublicKey) > 0 {
		tree[PublicKeyFile] = opts.PublicKey
	}

	return tree, nil
}

type link struct {
	href  string
	text  string
	attrs [][2]string
}

// wheelLink builds the anchor for one wheel; the sha256 fragment lets
// installers verify the download without another request
func wheelLink(w models.WheelRecord) link {
	l := link{href: w.URL, text: w.Filename}
	if w.SHA256 != "" {
		l.href += "#sha256=" + w.SHA256
	}
	if w.RequiresPython != "" {
		l.attrs = append(l.attrs, [2]string{"data-requires-python", w.RequiresPython})
	}
	if w.MetadataSHA256 != "" {
		// data-dist-info-metadata is the pre-PEP 714 name still read by older pip
		l.attrs = append(l.attrs,
			[2]string{"data-core-metadata", "sha256=" + w.MetadataSHA256},
			[2]string{"data-dist-info-metadata", "sha256=" + w.MetadataSHA256})
	}
	if w.GPGSig {
		l.attrs = append(l.attrs, [2]string{"data-gpg-sig", "true"})
	}
	return l
}

func renderPage(title, description string, links []link) []byte {
	var buf bytes.Buffer

	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	buf.WriteString("    <meta charset=\"utf-8\">\n")
	fmt.Fprintf(&buf, "    <meta name=\"pypi:repository-version\" content=\"%s\">\n", repositoryVersion)
	fmt.Fprintf(&buf, "    <title>%s</title>\n", html.EscapeString(title))
	buf.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&buf, "    <h1>%s</h1>\n", html.EscapeString(title))
	if description != "" {
		fmt.Fprintf(&buf, "    <p>%s</p>\n", html.EscapeString(description))
	}

	for _, l := range links {
		fmt.Fprintf(&buf, "    <a href=\"%s\"", html.EscapeString(l.href))
		for _, a := range l.attrs {
			fmt.Fprintf(&buf, " %s=\"%s\"", a[0], html.EscapeString(a[1]))
		}
		fmt.Fprintf(&buf, ">%s</a><br>\n", html.EscapeString(l.text))
	}

	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes()
}
