package static

import (
	"embed"
)

// Scenarios 内嵌差分验证场景集，spice/verify 的执行器按目录读取。
//
//go:embed scenarios
var Scenarios embed.FS
