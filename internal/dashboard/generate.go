// Package dashboard renders Grafana dashboards for the GreptimeDB tables the
// station writes.
package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"farmwatch/internal/telemetry"
)

//go:embed templates/*.json.tmpl
var templates embed.FS

var templateFiles = []string{
	"templates/grafana-farm-telemetry.json.tmpl",
	"templates/grafana-farm-missions.json.tmpl",
}

type tableNames struct {
	Telemetry string
	Missions  string
}

// Render executes every dashboard template and writes the JSON to outDir.
// Templates read the datasource uid with the env function, so a missing
// GREPTIMEDB_DATASOURCE_UID fails the render.
func Render(outDir string) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}
	data := tableNames{
		Telemetry: telemetry.TelemetryTableName,
		Missions:  telemetry.MissionEventTableName,
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, tplName := range templateFiles {
		t, err := template.New(filepath.Base(tplName)).Funcs(funcMap).ParseFS(templates, tplName)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(tplName), ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := t.Execute(f, data); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
