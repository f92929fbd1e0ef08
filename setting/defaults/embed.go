package defaults

import (
	"embed"
)

// FS provides the embedded default settings.
//
//go:embed *.yaml
var FS embed.FS

// Name of the default settings file inside FS.
const Name = "ablab.yaml"
