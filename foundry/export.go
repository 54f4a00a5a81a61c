package foundry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ByLCY/qrfoundry/layout"
	"github.com/ByLCY/qrfoundry/renderer"
)

// Export 渲染布局并写入 dir/filename，返回写入的路径。
// filename 没有扩展名时补上 .pdf。
func Export(result *layout.Result, r renderer.Renderer, dir, filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("导出文件名为空")
	}
	if filepath.Base(filename) != filename {
		return "", fmt.Errorf("导出文件名 %q 不能包含路径", filename)
	}
	if filepath.Ext(filename) == "" {
		filename += DefaultExtension
	}
	data, err := r.Render(result)
	if err != nil {
		return "", fmt.Errorf("渲染失败: %w", err)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
