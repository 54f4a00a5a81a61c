package renderer

import (
	"image"

	"github.com/ByLCY/qrfoundry/layout"
)

// Renderer 将布局结果输出为最终文件，例如 PDF。
// Render 返回生成的二进制数据（例如 PDF 字节切片）以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// Previewer 将单页布局栅格化，用于界面内联预览。
// dpmm 为每毫米像素数，page 从 0 开始计数。
type Previewer interface {
	Preview(result *layout.Result, page int, dpmm float64) (image.Image, error)
}
