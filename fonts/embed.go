package fonts

import (
	"fmt"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

var builtin = map[string][]byte{
	"regular": goregular.TTF,
	"bold":    gobold.TTF,
	"mono":    gomono.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:regular" 或直接 "regular"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimPrefix(name, "embed:"))
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("内置字体 %s 不存在", name)
	}
	return data, nil
}
