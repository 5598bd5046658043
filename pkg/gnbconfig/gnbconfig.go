// Package gnbconfig renders the radio stack configuration file of the CU.
package gnbconfig

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/gnb.conf.tmpl
var templateFS embed.FS

var gnbTemplate = template.Must(
	template.New("gnb.conf.tmpl").Option("missingkey=error").ParseFS(templateFS, "templates/gnb.conf.tmpl"),
)

// Config holds every value substituted into gnb.conf. It is rebuilt on each
// reconciliation and never stored; the rendered text is the only artifact.
type Config struct {
	CUName    string
	CUID      string
	TAC       string
	MCC       string
	MNC       string
	MNCLength string
	NSSAISST  string
	NSSAISD   string

	F1InterfaceName  string
	F1CUIPv4Address  string
	F1CUPort         string
	F1DUIPv4Address  string
	F1DUPort         string
	AMFIPv4Address   string
	AMFIPv6Address   string
	NGAInterfaceName string
	NGAIPv4Address   string
	NGUInterfaceName string
	NGUIPv4Address   string
	S1UPort          string
}

// Render returns the configuration text for cfg. The output only depends on
// cfg, so identical inputs give byte-identical files.
func Render(cfg Config) (string, error) {
	var buf bytes.Buffer
	if err := gnbTemplate.Execute(&buf, cfg); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", gnbTemplate.Name(), err)
	}
	return buf.String(), nil
}
