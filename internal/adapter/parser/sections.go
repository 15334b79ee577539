package parser

import "strings"

// 本包把 LLM 返回的 Markdown 审查原文切成命名小节，再按小节做类型化提取。
// 所有提取都遵循同一个原则：缺失的小节/字段给默认值，绝不报错。

type section struct {
	name  string
	level int
	body  string
}

// headingLevel 返回标题行的层级 ("## Red Flags" -> 2)，非标题行返回 0
func headingLevel(line string) int {
	trimmed := strings.TrimSpace(line)
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level >= len(trimmed) || trimmed[level] != ' ' {
		return 0
	}
	return level
}

// splitSections 按标题行把整篇文档切成有序小节列表
func splitSections(raw string) []section {
	var sections []section
	var current *section
	var body []string

	flush := func() {
		if current != nil {
			current.body = strings.TrimSpace(strings.Join(body, "\n"))
			sections = append(sections, *current)
		}
		body = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		if level := headingLevel(line); level > 0 {
			flush()
			name := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
			current = &section{name: name, level: level}
			continue
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush()

	return sections
}

// Section 返回指定名字小节的正文：从该标题到下一个同级(或更高级)标题之间的文本
// 标题名大小写不敏感；找不到时返回空串，调用方拿到的就是默认值
func Section(raw, name string) string {
	sections := splitSections(raw)
	for i, s := range sections {
		if !strings.EqualFold(s.name, name) {
			continue
		}
		parts := []string{s.body}
		// 子标题 (层级更深) 归属当前小节
		for _, sub := range sections[i+1:] {
			if sub.level <= s.level {
				break
			}
			parts = append(parts, sub.body)
		}
		return strings.TrimSpace(strings.Join(parts, "\n"))
	}
	return ""
}

// Bullets 提取小节里的列表项：只保留以列表符号开头的行，去掉符号并修剪空白
// 穿插在列表中的普通叙述行会被丢掉，行序保持原文顺序
func Bullets(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		var item string
		switch {
		case strings.HasPrefix(trimmed, "- "):
			item = trimmed[2:]
		case strings.HasPrefix(trimmed, "* "):
			item = trimmed[2:]
		case strings.HasPrefix(trimmed, "• "):
			item = strings.TrimPrefix(trimmed, "• ")
		default:
			continue
		}
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Line 在小节里找 "<label>: <value>" 形式的行并返回 value，找不到返回空串
func Line(text, label string) string {
	prefix := strings.ToLower(label) + ":"
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		// 兼容加粗写法 "**Label:** value"
		trimmed = strings.ReplaceAll(trimmed, "**", "")
		trimmed = strings.TrimLeft(trimmed, "-* ")
		if len(trimmed) >= len(prefix) && strings.EqualFold(trimmed[:len(prefix)], prefix) {
			return strings.TrimSpace(trimmed[len(prefix):])
		}
	}
	return ""
}
