package configs

import _ "embed"

// Default は、-config が指定されなかったときに使う設定です。
//
//go:embed default.yaml
var Default []byte
