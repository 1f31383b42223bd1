package respond

import (
	"net/http"
	"sort"

	"github.com/dandidav/gateway/internal/resource"
)

// listingTemplate renders the HTML view-data contract: title,
// breadcrumbs, rows, and package metadata (§4.7).
const listingTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="/.static/styles.css">
</head>
<body>
<h1>{{.Title}}</h1>
<nav>
{{range .Breadcrumbs}}<a href="{{.Href}}">{{.Text}}</a> / {{end}}
</nav>
<table>
<thead><tr><th>Name</th><th>Size</th><th>Modified</th></tr></thead>
<tbody>
{{range .Rows}}<tr class="{{if .IsDir}}dir{{else}}file{{end}}">
<td><a href="{{.Href}}">{{.Name}}</a>{{if .MetadataURL}} <a href="{{.MetadataURL}}">(metadata)</a>{{end}}</td>
<td>{{.Size}}</td>
<td>{{if .Modified}}<time datetime="{{.ModifiedAttr}}">{{.Modified}}</time>{{end}}</td>
</tr>
{{end}}
</tbody>
</table>
<footer>{{.PackageURL}} {{.PackageVersion}}{{if .PackageCommit}} ({{.PackageCommit}}){{end}}</footer>
</body>
</html>
`

// breadcrumb is one entry in the HTML view's breadcrumb trail.
type breadcrumb struct {
	Text string
	Href string
}

// row is one rendered table row.
type row struct {
	Name         string
	Href         string
	IsDir        bool
	Size         string
	Modified     string
	ModifiedAttr string
	MetadataURL  string
}

type viewData struct {
	Title          string
	Breadcrumbs    []breadcrumb
	Rows           []row
	PackageURL     string
	PackageVersion string
	PackageCommit  string
}

// RenderHTML renders a collection and its children as the HTML table
// view. Folders sort before items, lexicographically, re-sorted here
// so the order holds even if a caller passes unsorted children. A
// version's dandiset.yaml, which the resolver lists first, is sorted
// among the items like any other file in this view.
func (r *Responder) RenderHTML(w http.ResponseWriter, req *http.Request, res resource.Resource, children []resource.Resource) {
	r.WriteUniversalHeaders(w)

	sorted := make([]resource.Resource, len(children))
	copy(sorted, children)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := sorted[i].IsCollection(), sorted[j].IsCollection()
		if ci != cj {
			return ci
		}
		return sorted[i].Name < sorted[j].Name
	})

	rows := make([]row, 0, len(sorted))
	for _, c := range sorted {
		rows = append(rows, childToRow(c))
	}

	data := viewData{
		Title:          r.title,
		Breadcrumbs:    breadcrumbsFor(res.Href),
		Rows:           rows,
		PackageURL:     "https://github.com/dandi/dandidav",
		PackageVersion: r.packageVersion,
		PackageCommit:  r.packageCommit,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = r.htmlTemplate.Execute(w, data)
}

func childToRow(c resource.Resource) row {
	rr := row{
		Name:  c.Name,
		Href:  c.Href,
		IsDir: c.IsCollection(),
	}
	if c.Size != nil {
		rr.Size = FormatSize(*c.Size)
	}
	if c.Modified != nil {
		rr.Modified = FormatRFC3339(*c.Modified)
		rr.ModifiedAttr = rr.Modified
	}
	if c.MetadataHref != "" {
		rr.MetadataURL = c.MetadataHref
	}
	return rr
}

func breadcrumbsFor(href string) []breadcrumb {
	crumbs := []breadcrumb{{Text: "/", Href: "/"}}
	if href == "/" {
		return crumbs
	}

	parts := splitHref(href)
	acc := ""
	for _, p := range parts {
		acc += p + "/"
		crumbs = append(crumbs, breadcrumb{Text: p, Href: "/" + acc})
	}
	return crumbs
}

func splitHref(href string) []string {
	trimmed := href
	for len(trimmed) > 0 && trimmed[0] == '/' {
		trimmed = trimmed[1:]
	}
	for len(trimmed) > 0 && trimmed[len(trimmed)-1] == '/' {
		trimmed = trimmed[:len(trimmed)-1]
	}
	if trimmed == "" {
		return nil
	}
	var parts []string
	start := 0
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] == '/' {
			parts = append(parts, trimmed[start:i])
			start = i + 1
		}
	}
	parts = append(parts, trimmed[start:])
	return parts
}
