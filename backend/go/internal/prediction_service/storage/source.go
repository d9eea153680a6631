package storage

import "strings"

// SourceKind 区分上传图片的两种来源。
type SourceKind int

const (
	// KindNone 表示未提供图片。
	KindNone SourceKind = iota
	// KindAlreadyHosted 表示图片已经位于持久化存储中，值为可访问的 URL。
	KindAlreadyHosted
	// KindLocal 表示图片是本地的临时文件，值为文件路径。
	KindLocal
)

func (k SourceKind) String() string {
	switch k {
	case KindAlreadyHosted:
		return "already_hosted"
	case KindLocal:
		return "local"
	default:
		return "none"
	}
}

// ImageSource 是上传层产出的图片描述，只可能是 AlreadyHosted(url) 或 Local(path) 之一。
// 零值表示没有图片。
type ImageSource struct {
	kind  SourceKind
	value string
}

// AlreadyHosted 构造一个已托管的图片来源。
func AlreadyHosted(url string) ImageSource {
	return ImageSource{kind: KindAlreadyHosted, value: url}
}

// Local 构造一个本地临时文件的图片来源。
func Local(path string) ImageSource {
	return ImageSource{kind: KindLocal, value: path}
}

// Kind 返回来源类型。
func (s ImageSource) Kind() SourceKind { return s.kind }

// Value 返回 URL 或本地路径。
func (s ImageSource) Value() string { return s.value }

// IsZero 报告是否未提供图片。
func (s ImageSource) IsZero() bool {
	return s.kind == KindNone || s.value == ""
}

// IsHosted 判断 location 是否以 schemes 中的某个前缀开头（不区分大小写），且前缀之后仍有内容。
// 带查询参数的签名 URL 同样满足前缀匹配，因此也被视为已托管。
func IsHosted(location string, schemes []string) bool {
	lower := strings.ToLower(strings.TrimSpace(location))
	for _, scheme := range schemes {
		p := strings.ToLower(scheme)
		if p != "" && strings.HasPrefix(lower, p) && len(lower) > len(p) {
			return true
		}
	}
	return false
}

// ClassifyLocation 把上传中间件给出的原始位置字符串映射为 ImageSource。
// 这是系统中唯一做前缀判断的地方。判断时忽略首尾空白，但返回的值与输入完全一致。
func ClassifyLocation(location string, schemes []string) ImageSource {
	if strings.TrimSpace(location) == "" {
		return ImageSource{}
	}
	if IsHosted(location, schemes) {
		return AlreadyHosted(location)
	}
	return Local(location)
}
