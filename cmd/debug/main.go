package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mentallyblue/ai0x-sub000/internal/adapter/parser"
	"github.com/mentallyblue/ai0x-sub000/internal/domain"
)

// 调试入口：把一份审查原文 dump 喂给解析流水线，打印评分明细
// 用法: go run ./cmd/debug <原文文件路径>
func main() {
	if len(os.Args) < 2 {
		fmt.Println("用法: debug <审查原文文件>")
		return
	}

	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("❌ 读取文件失败: %v", err)
	}
	rawText := string(raw)

	scores, matched := parser.ParseDetailedScores(rawText)
	legitimacy := parser.LegitimacyScore(scores, matched)
	review := parser.BuildReview(rawText)
	trust := domain.CalculateTrustScore(&review)

	fmt.Println("🔍 调试模式：解析审查原文")
	fmt.Printf("命中类别数: %d/4\n", matched)
	fmt.Printf("  Code Quality:      %d/25\n", scores.CodeQuality)
	fmt.Printf("  Project Structure: %d/25\n", scores.ProjectStructure)
	fmt.Printf("  Implementation:    %d/25\n", scores.Implementation)
	fmt.Printf("  Documentation:     %d/25\n", scores.Documentation)
	fmt.Printf("合法性评分: %d/100\n", legitimacy)

	fmt.Printf("红旗 %d 条, LARP 指标 %d 条, 误述检查 %d 条\n",
		len(review.RedFlags), len(review.LarpIndicators), len(review.MisrepresentationChecks))
	fmt.Printf("AI 组件 %d 个 (其中疑虑 %d 个), 误导程度: %s\n",
		len(review.AIAnalysis.Components), len(review.AIAnalysis.Concerns), review.AIAnalysis.MisleadingLevel)
	fmt.Printf("信任评分: %d/100\n", trust)
	fmt.Printf("最终评分: %d/100\n", domain.CalculateFinalScore(legitimacy, trust))
}
