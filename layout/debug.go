package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// EncodeDebugJSON 将布局结果以缩进 JSON 写入 w。位图本身不会输出，只保留尺寸信息。
func EncodeDebugJSON(res *Result, w io.Writer) error {
	if res == nil {
		return fmt.Errorf("布局结果为空")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteDebugJSON 将布局结果输出为 JSON 文件，便于调试或可视化。
func WriteDebugJSON(res *Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeDebugJSON(res, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
