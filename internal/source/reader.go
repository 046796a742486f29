package source

import (
	"archive/zip"
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"geonames-sync/internal/geo"
)

// DefaultFiles：数据目录下各类别的默认文件名
var DefaultFiles = map[geo.Kind]string{
	geo.KindCountry: "countryInfo.txt",
	geo.KindRegion:  "admin1CodesASCII.txt",
	geo.KindCity:    "cities15000.zip",
	geo.KindAltName: "alternateNames.zip",
}

// Source：一个待导入的数据源
// 约束：Open 每次调用返回一个从头开始的新流；Total 为数据行数（不含空行与注释行），0 表示未知
type Source struct {
	Name  string
	Kind  geo.Kind
	Total int
	Open  func() (io.ReadCloser, error)
}

// FromString：由内存文本构造数据源，主要用于测试与小型补丁文件
func FromString(name string, kind geo.Kind, text string) Source {
	total, _ := countLines(strings.NewReader(text))
	return Source{
		Name:  name,
		Kind:  kind,
		Total: total,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(text)), nil
		},
	}
}

// Open：按路径打开 .txt 或 .zip 数据源并统计行数
// 背景：zip 内取与归档同名的 .txt 条目，否则取第一个非 readme 的 .txt
func Open(path string, kind geo.Kind) (Source, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Source{}, err
	}
	if st.IsDir() {
		return Source{}, fmt.Errorf("%s is a directory", path)
	}
	src := Source{Name: filepath.Base(path), Kind: kind}
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		src.Open = func() (io.ReadCloser, error) { return openZipEntry(path) }
	} else {
		src.Open = func() (io.ReadCloser, error) { return os.Open(path) }
	}
	rc, err := src.Open()
	if err != nil {
		return Source{}, err
	}
	defer rc.Close()
	n, err := countLines(rc)
	if err != nil {
		return Source{}, fmt.Errorf("count lines %s: %w", path, err)
	}
	src.Total = n
	return src, nil
}

type zipEntry struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (z *zipEntry) Close() error {
	err := z.ReadCloser.Close()
	if cerr := z.archive.Close(); err == nil {
		err = cerr
	}
	return err
}

func openZipEntry(path string) (io.ReadCloser, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	want := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".txt"
	var pick *zip.File
	for _, f := range zr.File {
		name := filepath.Base(f.Name)
		if strings.EqualFold(name, want) {
			pick = f
			break
		}
		if pick == nil && strings.EqualFold(filepath.Ext(name), ".txt") && !strings.HasPrefix(strings.ToLower(name), "readme") {
			pick = f
		}
	}
	if pick == nil {
		zr.Close()
		return nil, fmt.Errorf("%s: no .txt entry", path)
	}
	rc, err := pick.Open()
	if err != nil {
		zr.Close()
		return nil, err
	}
	return &zipEntry{ReadCloser: rc, archive: zr}, nil
}

// countLines：统计数据行数，跳过规则与 Scan 一致，使 Total 等于最终处理行数
func countLines(r io.Reader) (int, error) {
	sc := newScanner(r)
	n := 0
	for sc.Scan() {
		if isData(sc.Text()) {
			n++
		}
	}
	return n, sc.Err()
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return sc
}

// isData：非空且非 # 注释
func isData(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed != "" && !strings.HasPrefix(trimmed, "#")
}

// Scan：逐行读取数据源，跳过空行与 # 注释行
// 约束：回调收到的行号为物理行号（从 1 开始）；回调返回错误即停止
func Scan(ctx context.Context, src Source, fn func(line int, text string) error) error {
	if src.Open == nil {
		return fmt.Errorf("source %s: no reader", src.Name)
	}
	rc, err := src.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	sc := newScanner(rc)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if !isData(text) {
			continue
		}
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := fn(line, text); err != nil {
			return err
		}
	}
	return sc.Err()
}
