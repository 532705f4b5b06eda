package svcmgr

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"text/template"
)

// Descriptor declares how the service manager launches the agent. It is
// rendered and written whole on every install; an existing file is replaced,
// never patched.
type Descriptor struct {
	// Label is the unique service identifier.
	Label string

	// ProgramArguments is the ordered launch vector. Element zero must be an
	// absolute executable path.
	ProgramArguments []string

	WorkingDirectory  string
	StandardOutPath   string
	StandardErrorPath string

	RunAtLoad bool

	// Daily schedule; Hour/Minute are in the user's local time.
	Hour   int
	Minute int
}

var plistTemplate = template.Must(template.New("launchd").Funcs(template.FuncMap{
	"xml": escapeXML,
}).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{xml .Label}}</string>
	<key>ProgramArguments</key>
	<array>
{{- range .ProgramArguments}}
		<string>{{xml .}}</string>
{{- end}}
	</array>
	<key>WorkingDirectory</key>
	<string>{{xml .WorkingDirectory}}</string>
	<key>StandardOutPath</key>
	<string>{{xml .StandardOutPath}}</string>
	<key>StandardErrorPath</key>
	<string>{{xml .StandardErrorPath}}</string>
	<key>RunAtLoad</key>
	{{if .RunAtLoad}}<true/>{{else}}<false/>{{end}}
	<key>StartCalendarInterval</key>
	<dict>
		<key>Hour</key>
		<integer>{{.Hour}}</integer>
		<key>Minute</key>
		<integer>{{.Minute}}</integer>
	</dict>
</dict>
</plist>
`))

// Render produces the property list document for the service manager.
func (d *Descriptor) Render() ([]byte, error) {
	if d.Label == "" {
		return nil, fmt.Errorf("descriptor has no label")
	}
	if len(d.ProgramArguments) == 0 {
		return nil, fmt.Errorf("descriptor %s has an empty argument vector", d.Label)
	}

	var buf bytes.Buffer
	if err := plistTemplate.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("render descriptor: %w", err)
	}
	return buf.Bytes(), nil
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
