package storage

import (
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultAllowedFormats 是默认允许上传的图片扩展名。
var DefaultAllowedFormats = []string{"jpg", "jpeg", "png"}

// SniffUpload 通过文件内容而不是文件名判断上传部分的 MIME 类型。
func SniffUpload(fh *multipart.FileHeader) (*mimetype.MIME, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return mimetype.DetectReader(f)
}

// FormatAllowed 报告 mtype 是否属于 allowed 中的某个扩展名，jpg 与 jpeg 等价。
func FormatAllowed(mtype *mimetype.MIME, allowed []string) bool {
	for _, format := range allowed {
		format = strings.ToLower(strings.TrimPrefix(format, "."))
		if "."+format == mtype.Extension() {
			return true
		}
		if (format == "jpg" || format == "jpeg") && mtype.Is("image/jpeg") {
			return true
		}
	}
	return false
}
