package svcmgr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorRender(t *testing.T) {
	d := &Descriptor{
		Label:             "com.starhop.agent",
		ProgramArguments:  []string{"/usr/bin/arch", "-arm64", "/opt/venv/bin/python3", "/opt/starhop.py"},
		WorkingDirectory:  "/opt",
		StandardOutPath:   "/opt/logs/agent.out.log",
		StandardErrorPath: "/opt/logs/agent.err.log",
		RunAtLoad:         true,
		Hour:              9,
		Minute:            0,
	}

	data, err := d.Render()
	require.NoError(t, err)
	doc := string(data)

	assert.Contains(t, doc, "<string>com.starhop.agent</string>")
	assert.Contains(t, doc, "<key>StartCalendarInterval</key>")
	assert.Contains(t, doc, "<integer>9</integer>")
	assert.Contains(t, doc, "<true/>")

	// argument vector order must survive rendering
	archIdx := strings.Index(doc, "<string>/usr/bin/arch</string>")
	pyIdx := strings.Index(doc, "<string>/opt/venv/bin/python3</string>")
	require.Greater(t, archIdx, 0)
	require.Greater(t, pyIdx, archIdx)
}

func TestDescriptorRender_EscapesXML(t *testing.T) {
	d := &Descriptor{
		Label:            "com.starhop.agent",
		ProgramArguments: []string{"/Users/a b/Library/StarHop & Co/python3"},
	}

	data, err := d.Render()
	require.NoError(t, err)

	assert.Contains(t, string(data), "StarHop &amp; Co")
	assert.NotContains(t, string(data), "& Co/")
}

func TestDescriptorRender_Invalid(t *testing.T) {
	_, err := (&Descriptor{ProgramArguments: []string{"/bin/true"}}).Render()
	require.Error(t, err)

	_, err = (&Descriptor{Label: "com.starhop.agent"}).Render()
	require.Error(t, err)
}
