// 数据导入工具：把 GeoNames 转储（国家/行政区/城市/译名）合并进本地数据库
package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
