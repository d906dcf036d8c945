// Command mockpage renders a SAIH-style river summary page from fixture
// readings and either writes it to a file or serves it over HTTP, so the
// poller can be exercised end-to-end without touching the real site.
//
// Usage:
//
//	go run ./cmd/mockpage -addr :9999               # serve built-in fixtures
//	go run ./cmd/mockpage -data rows.json -out p.html
//
// A rows.json file is a JSON array of {"id","name","level"} objects; level
// is the raw Spanish-locale cell text ("0,93", "N/D", ...).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"time"
)

type row struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level string `json:"level"`
}

var builtinRows = []row{
	{ID: "22", Name: "Guadalhorce en Cartama (MA)", Level: "0,93"},
	{ID: "23", Name: "Rio Grande en Coin (MA)", Level: "1,20"},
	{ID: "31", Name: "Barbate en Vejer (CA)", Level: "N/D"},
	{ID: "40", Name: "Guadiaro en San Pablo (CA)", Level: "2,05"},
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><title>Resumen de rios</title></head>
<body>
<h1>Resumen de rios</h1>
<table>
  <tr><th>Numero</th><th>Nombre</th><th>Nivel Medio (m)</th><th>Caudal Medio</th></tr>
{{- range .Rows}}
  <tr><td>{{.ID}}</td><td>{{.Name}}</td><td>{{.Level}}</td><td></td></tr>
{{- end}}
</table>
<div class="footer">Datos actualizados a: {{.Updated}}</div>
</body>
</html>
`))

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dataPath := flag.String("data", "", "JSON file with table rows (default: built-in fixtures)")
	out := flag.String("out", "", "write the page to this file and exit")
	addr := flag.String("addr", "", "serve the page on this address (e.g. :9999)")
	updated := flag.String("updated", "", `footer timestamp (default: now, "DD-MM-YYYY HH:MM:SS")`)
	flag.Parse()

	if (*out == "") == (*addr == "") {
		flag.Usage()
		return fmt.Errorf("exactly one of -out or -addr is required")
	}

	rows := builtinRows
	if *dataPath != "" {
		raw, err := os.ReadFile(*dataPath)
		if err != nil {
			return fmt.Errorf("read rows: %w", err)
		}
		rows = nil
		if err := json.Unmarshal(raw, &rows); err != nil {
			return fmt.Errorf("parse rows: %w", err)
		}
	}

	if *updated == "" {
		*updated = time.Now().UTC().Format("02-01-2006 15:04:05")
	}

	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		return render(f, rows, *updated)
	}

	log.Printf("serving mock page on %s (%d stations)", *addr, len(rows))
	http.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := render(w, rows, *updated); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return http.ListenAndServe(*addr, nil)
}

func render(w interface{ Write([]byte) (int, error) }, rows []row, updated string) error {
	return pageTmpl.Execute(w, struct {
		Rows    []row
		Updated string
	}{Rows: rows, Updated: updated})
}
