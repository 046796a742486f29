package geo

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonASCII = runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })

// ToASCII：NFKD 分解后丢弃全部非 ASCII 字符
// 约束：无法音译的文字（如中文）返回空串，调用方据此保留原有值。
func ToASCII(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFKD, runes.Remove(nonASCII))
	out, _, err := transform.String(t, s)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}
