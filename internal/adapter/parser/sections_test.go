package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleDoc = `# Review

前言，不属于任何小节。

## Red Flags
- Hardcoded credentials in config
- No license file

## Logic Flow
描述行，不是列表项。
- Input validation happens after side effects

### Sub Detail
- Nested bullet belongs to Logic Flow

## Overall Assessment
Solid project overall, minor concerns.

## Empty Section

## Investment Ranking
Rating: Medium
Confidence: 85%
- Team ships consistently
`

func TestSection(t *testing.T) {
	tests := []struct {
		name     string
		section  string
		expected string
	}{
		{
			name:     "普通小节",
			section:  "Red Flags",
			expected: "- Hardcoded credentials in config\n- No license file",
		},
		{
			name:    "子标题内容归属父小节",
			section: "Logic Flow",
			expected: "描述行，不是列表项。\n- Input validation happens after side effects\n" +
				"- Nested bullet belongs to Logic Flow",
		},
		{
			name:     "小节名大小写不敏感",
			section:  "red flags",
			expected: "- Hardcoded credentials in config\n- No license file",
		},
		{
			name:     "缺失小节返回空串而不是报错",
			section:  "LARP Indicators",
			expected: "",
		},
		{
			name:     "空小节",
			section:  "Empty Section",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Section(sampleDoc, tt.section))
		})
	}
}

func TestBullets(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "破折号列表",
			input:    "- first\n- second",
			expected: []string{"first", "second"},
		},
		{
			name:     "混合列表符号",
			input:    "* star item\n• dot item\n- dash item",
			expected: []string{"star item", "dot item", "dash item"},
		},
		{
			name:     "叙述行被丢弃且保持原文顺序",
			input:    "prose line\n- kept one\nmore prose\n- kept two",
			expected: []string{"kept one", "kept two"},
		},
		{
			name:     "空输入",
			input:    "",
			expected: nil,
		},
		{
			name:     "只有叙述行",
			input:    "nothing bulleted here",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Bullets(tt.input))
		})
	}
}

func TestLine(t *testing.T) {
	section := Section(sampleDoc, "Investment Ranking")

	assert.Equal(t, "Medium", Line(section, "Rating"))
	assert.Equal(t, "85%", Line(section, "Confidence"))
	assert.Equal(t, "", Line(section, "Nonexistent"))

	// 加粗写法也要能识别
	assert.Equal(t, "High", Line("**Rating:** High", "Rating"))
}
