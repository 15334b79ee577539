package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mentallyblue/ai0x-sub000/internal/adapter/gemini"
	"github.com/mentallyblue/ai0x-sub000/internal/adapter/github"
	"github.com/mentallyblue/ai0x-sub000/internal/adapter/poster"
	"github.com/mentallyblue/ai0x-sub000/internal/adapter/repository"
	"github.com/mentallyblue/ai0x-sub000/internal/common"
	"github.com/mentallyblue/ai0x-sub000/internal/service"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	// 1. 命令行参数
	mode := flag.String("mode", "analyze", "运行模式: analyze (分析单个仓库) 或 promo (跑一轮文案) 或 refresh (刷新过期文档)")
	repo := flag.String("repo", "", "仓库全名 owner/name (仅在 analyze 模式下有效)")
	concurrency := flag.Int("concurrency", 3, "后台刷新并发数")
	schedule := flag.Bool("schedule", false, "常驻模式: 每小时跑一轮文案 + 刷新巡检")
	flag.Parse()

	// 2. 环境变量 (.env 不存在也没关系)
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=123456 dbname=ai0x port=5432 sslmode=disable"
	}
	repoStore, err := repository.NewPostgresRepo(dsn)
	if err != nil {
		log.Fatalf("❌ DB 初始化失败: %v", err)
	}

	// 3. 初始化 AI 和外部依赖
	ctx := context.Background()
	appraiser, err := gemini.NewGeminiAppraiser(ctx, os.Getenv("GEMINI_API_KEY"))
	if err != nil {
		log.Fatalf("❌ AI 初始化失败: %v", err)
	}

	fetcher := github.NewFetcher(os.Getenv("GITHUB_TOKEN"))
	webhookPoster := poster.NewWebhookPoster(os.Getenv("PROMO_WEBHOOK"))

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "https://ai0x.app"
	}

	// 冷却状态由这里持有并注入，各触发面共用一份
	guard := common.NewCooldownGuard()

	analysisService := service.NewAnalysisService(fetcher, appraiser, repoStore)
	analysisService.SetMaxGoroutines(*concurrency)
	promoService := service.NewPromoService(repoStore, appraiser, webhookPoster, guard, baseURL)

	// 4. 根据模式分流
	if *schedule {
		runScheduled(analysisService, promoService)
		return
	}

	switch *mode {
	case "analyze":
		runAnalyze(analysisService, *repo)
	case "promo":
		runPromo(promoService)
	case "refresh":
		runRefresh(analysisService)
	default:
		fmt.Println("❌ 未知模式，请使用 -mode=analyze / promo / refresh")
	}
}

// runScheduled 常驻模式：cron 调度文案周期和刷新巡检，Ctrl+C 优雅退出
func runScheduled(analysisService *service.AnalysisService, promoService *service.PromoService) {
	c := cron.New()

	// 每小时的文案周期；上一轮没跑完时由单飞标志直接跳过
	_, err := c.AddFunc("0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := promoService.RunCycle(ctx); err != nil {
			log.Printf("❌ 文案周期出错: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("❌ 注册文案任务失败: %v", err)
	}

	// 每小时的过期文档巡检
	_, err = c.AddFunc("30 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := analysisService.RefreshStale(ctx); err != nil {
			log.Printf("❌ 刷新巡检出错: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("❌ 注册巡检任务失败: %v", err)
	}

	c.Start()
	fmt.Println("⏰ 常驻模式已启动：每小时跑一轮文案和巡检")
	fmt.Println("按下 Ctrl+C 可以优雅停止程序")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n👋 收到停止信号，正在退出...")
	<-c.Stop().Done()
}

// runAnalyze 分析单个仓库并打印评分
func runAnalyze(analysisService *service.AnalysisService, repo string) {
	if repo == "" {
		fmt.Println("⚠️ 请用 -repo owner/name 指定要分析的仓库")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	analysis, err := analysisService.Analyze(ctx, repo)
	if err != nil {
		log.Printf("❌ 分析失败: %v", err)
		return
	}

	fmt.Println("\n================ [ 分析结果 ] ================")
	fmt.Printf("仓库:       %s\n", analysis.RepoFullName)
	fmt.Printf("合法性评分: %d/100\n", analysis.LegitimacyScore)
	fmt.Printf("信任评分:   %d/100\n", analysis.TrustScore)
	fmt.Printf("最终评分:   %d/100\n", analysis.FinalScore)
	if analysis.Summary != "" {
		fmt.Printf("简评:       %s\n", analysis.Summary)
	}
	fmt.Println("==============================================")
}

// runPromo 手动跑一轮文案生成
func runPromo(promoService *service.PromoService) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := promoService.RunCycle(ctx); err != nil {
		log.Printf("❌ 文案周期出错: %v", err)
	}
}

// runRefresh 手动跑一轮过期文档刷新
func runRefresh(analysisService *service.AnalysisService) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := analysisService.RefreshStale(ctx); err != nil {
		log.Printf("❌ 刷新巡检出错: %v", err)
	}
}
