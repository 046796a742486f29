// 包 source：GeoNames 文本转储的读取与逐行解码
package source

import (
	"strings"
	"unicode/utf8"

	"geonames-sync/internal/geo"

	"golang.org/x/text/unicode/norm"
)

// Record：按位置排列的字段列表，长度固定为该类别的完整列数
type Record []string

// Get：越界安全的取值，返回去除首尾空白后的字段
func (r Record) Get(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

type layout struct{ width, min int }

var layouts = map[geo.Kind]layout{
	geo.KindCountry: {width: 19, min: 16},
	geo.KindRegion:  {width: 4, min: 3},
	geo.KindCity:    {width: 19, min: 18},
	geo.KindAltName: {width: 10, min: 4},
}

// Decode：将一行制表符分隔文本拆为固定宽度的字段列表
// 背景：上游转储偶有缺失尾列或非法字节，统一在此修复为 NFC 规范文本并补齐列数
// 约束：只做结构校验，不解释字段语义；字段不足返回 ErrMalformedRecord
func Decode(kind geo.Kind, line string) (Record, error) {
	lay, ok := layouts[kind]
	if !ok {
		return nil, geo.Malformedf("unsupported kind %s", kind)
	}
	line = strings.TrimRight(line, "\r\n")
	if !utf8.ValidString(line) {
		line = strings.ToValidUTF8(line, "�")
	}
	line = norm.NFC.String(line)
	parts := strings.Split(line, "\t")
	if len(parts) < lay.min {
		return nil, geo.Malformedf("%s row has %d fields, need %d", kind, len(parts), lay.min)
	}
	if len(parts) < lay.width {
		padded := make(Record, lay.width)
		copy(padded, parts)
		return padded, nil
	}
	return Record(parts), nil
}
