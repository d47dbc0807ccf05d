package tuning

import _ "embed"

//go:embed defaults.yaml
var defaultsYAML []byte
