// Package main 语料导入工具入口
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"lokalomat/internal/config"
	"lokalomat/internal/infrastructure/genai"
	"lokalomat/internal/wire"
	"lokalomat/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	var (
		file           = flag.String("file", "", "JSONL file with {party, section, text} records")
		reset          = flag.Bool("reset", false, "delete the configured corpus before loading")
		diagnoseTokens = flag.Bool("diagnose-tokens", false, "call countTokens for each item during batch diagnosis")
	)
	flag.Parse()

	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateIngest(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}
	if *file == "" {
		fmt.Println("Usage: ingest -file records.jsonl [-reset] [-diagnose-tokens]")
		os.Exit(2)
	}
	if *diagnoseTokens {
		cfg.Ingest.DiagnoseTokens = true
	}

	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()

	if *reset && cfg.Ingest.CorpusID != "" {
		client := genai.NewClient(&cfg.GenAI)
		corpusName := "corpora/" + cfg.Ingest.CorpusID
		if err := client.DeleteCorpus(ctx, corpusName, true); err != nil {
			logger.Warn(ctx, "failed to delete corpus", "corpus", corpusName, "error", err.Error())
		} else {
			logger.Info(ctx, "deleted corpus", "corpus", corpusName)
		}
	}

	loader := wire.InitializeLoader(ctx, cfg)
	corpusName, err := loader.LoadCorpus(ctx, *file)
	if err != nil {
		logger.Fatal(ctx, "corpus load failed", err)
	}

	logger.Info(ctx, "corpus load complete", "corpus", corpusName)
	fmt.Println(corpusName)
}
