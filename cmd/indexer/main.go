// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// indexer 把一个目录下的文本文件切片、向量化并写成本地内容索引，
// 供 API 服务的索引检索加载。
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"chat-platform/internal/app"
	"chat-platform/internal/retrieval"
	"chat-platform/internal/splitter"
	"chat-platform/pkg/config"
)

func main() {
	var (
		inDir   = flag.String("in", "data/raw", "待索引的文本目录（.txt/.md）")
		outDir  = flag.String("out", "", "索引输出目录，空则用配置 retrieval.dir")
		window  = flag.Int("window", 500, "切片长度（字符）")
		overlap = flag.Int("overlap", 50, "切片重叠（字符）")
	)
	flag.Parse()

	cfg, err := config.LoadAPIConfig()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *outDir == "" {
		*outDir = cfg.Retrieval.Dir
	}

	ctx := context.Background()
	embedder, err := app.NewEmbedderFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("初始化向量模型失败: %v", err)
	}

	var chunks []splitter.Chunk
	err = filepath.WalkDir(*inDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".md" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("读取 %s: %w", path, err)
		}
		chunks = append(chunks, splitter.SplitChunks(string(data), *window, *overlap)...)
		return nil
	})
	if err != nil {
		log.Fatalf("扫描输入目录失败: %v", err)
	}
	if len(chunks) == 0 {
		log.Fatalf("目录 %s 下没有可索引的文本", *inDir)
	}

	if err := retrieval.BuildIndex(ctx, embedder, chunks, *outDir); err != nil {
		log.Fatalf("构建索引失败: %v", err)
	}
	log.Printf("索引构建完成: %d 个切片 -> %s", len(chunks), *outDir)
}
