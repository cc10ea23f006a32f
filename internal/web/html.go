package web

import (
	"encoding/base64"
	"html/template"
)

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"png": func(b []byte) template.URL {
		return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(b))
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Carousell.sg Search</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: 'Inter', -apple-system, system-ui, sans-serif; background: #0f172a; color: #e2e8f0; min-height: 100vh; }
        .header { background: linear-gradient(135deg, #1e293b, #334155); padding: 1.5rem 2rem; border-bottom: 1px solid #475569; }
        .header h1 { font-size: 1.5rem; color: #38bdf8; }
        .header p { color: #94a3b8; font-size: 0.875rem; margin-top: 0.25rem; }
        form { display: flex; gap: 0.75rem; padding: 1.5rem 2rem; flex-wrap: wrap; align-items: flex-end; }
        label { display: flex; flex-direction: column; font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.05em; color: #94a3b8; gap: 0.35rem; }
        input { background: #1e293b; border: 1px solid #334155; border-radius: 8px; color: #f1f5f9; padding: 0.6rem 0.8rem; font-size: 1rem; }
        input[name=q] { min-width: 320px; }
        input[name=max] { width: 6rem; }
        button, .button { background: #38bdf8; color: #0f172a; border: 0; border-radius: 8px; padding: 0.65rem 1.2rem; font-weight: 600; cursor: pointer; text-decoration: none; }
        .notice { margin: 0 2rem 1rem; padding: 0.75rem 1rem; border-radius: 8px; font-size: 0.875rem; }
        .notice.error { background: #450a0a; border: 1px solid #f87171; color: #fca5a5; }
        .notice.info { background: #1e293b; border: 1px solid #334155; color: #cbd5e1; }
        table { margin: 0 2rem 2rem; border-collapse: collapse; width: calc(100% - 4rem); }
        th, td { text-align: left; padding: 0.6rem 0.8rem; border-bottom: 1px solid #334155; }
        th { color: #94a3b8; font-size: 0.75rem; text-transform: uppercase; }
        td.price { color: #4ade80; white-space: nowrap; }
        a { color: #38bdf8; }
        .notice img { display: block; max-width: 100%; margin-top: 0.75rem; border: 1px solid #334155; border-radius: 4px; }
        .actions { margin: 0 2rem 1rem; display: flex; gap: 1rem; align-items: center; color: #94a3b8; font-size: 0.875rem; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Carousell.sg Search</h1>
        <p>Runs a real browser against the marketplace. A search takes a few seconds.</p>
    </div>
    <form method="get" action="/">
        <label>Search for<input name="q" value="{{.Query}}" placeholder="e.g. iphone 15" autofocus></label>
        <label>Max results<input name="max" type="number" min="1" max="{{.Limit}}" value="{{.Max}}"></label>
        <button type="submit">Search</button>
    </form>
    {{if .Error}}<div class="notice error">{{.Error}}</div>{{end}}
    {{if .Result}}
    {{if .Result.Listings}}
    <div class="actions">
        <span>{{len .Result.Listings}} listings for "{{.Result.Query}}" in {{.Elapsed}}</span>
        <a class="button" href="/api/search.csv?q={{.Query}}&max={{.Max}}">Download CSV</a>
    </div>
    <table>
        <thead><tr><th>#</th><th>Name</th><th>Price</th><th>Link</th></tr></thead>
        <tbody>
        {{range $i, $l := .Result.Listings}}
            <tr><td>{{inc $i}}</td><td>{{$l.Name}}</td><td class="price">{{$l.Price}}</td><td><a href="{{$l.URL}}" target="_blank" rel="noopener">View</a></td></tr>
        {{end}}
        </tbody>
    </table>
    {{else if not .Error}}
    <div class="notice info">No listings found for "{{.Result.Query}}". Try a different keyword.
        {{if .Result.Screenshot}}<img src="{{png .Result.Screenshot}}" alt="What the browser saw">{{end}}
    </div>
    {{end}}
    {{end}}
</body>
</html>
`))
