package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"node-hierarchy-go/internal/config"
	"node-hierarchy-go/pkg/llm"
	"node-hierarchy-go/pkg/log"
)

// GenerationService 接口定义了基于大语言模型的层级内容生成操作。
type GenerationService interface {
	TitlesFromImage(ctx context.Context, mimeType, base64Image string) ([]string, error)
	GenerateDescription(ctx context.Context, title, background string) (string, error)
	GenerateHierarchy(ctx context.Context, topic string, depth int) ([]ImportNode, error)
}

type generationService struct {
	llmClient llm.Client
	genParams *llm.GenerationParams
}

// NewGenerationService 创建一个新的 GenerationService 实例。
func NewGenerationService(llmClient llm.Client, cfg config.LLMGenerationConfig) GenerationService {
	var params *llm.GenerationParams
	if cfg.Temperature > 0 || cfg.TopP > 0 || cfg.MaxTokens > 0 {
		params = &llm.GenerationParams{}
		if cfg.Temperature > 0 {
			t := cfg.Temperature
			params.Temperature = &t
		}
		if cfg.TopP > 0 {
			p := cfg.TopP
			params.TopP = &p
		}
		if cfg.MaxTokens > 0 {
			m := cfg.MaxTokens
			params.MaxTokens = &m
		}
	}
	return &generationService{llmClient: llmClient, genParams: params}
}

// TitlesFromImage 从一张图片（如思维导图截图）中提取候选节点标题列表。
func (s *generationService) TitlesFromImage(ctx context.Context, mimeType, base64Image string) ([]string, error) {
	prompt := "识别图片中的结构化内容，提取其中的条目标题。" +
		"只返回一个 JSON 字符串数组，不要输出任何其他文字。"
	raw, err := s.llmClient.CompleteWithImage(ctx, prompt, mimeType, base64Image)
	if err != nil {
		log.Errorf("[GenerationService] 图片标题提取失败: %v", err)
		return nil, fmt.Errorf("图片标题提取失败: %w", err)
	}

	var titles []string
	if err := json.Unmarshal([]byte(stripJSONFence(raw)), &titles); err != nil {
		log.Errorf("[GenerationService] 解析模型返回的标题列表失败, raw: %s, error: %v", raw, err)
		return nil, errors.New("模型返回的内容不是有效的标题列表")
	}
	return titles, nil
}

// GenerateDescription 为一个节点标题生成简短描述，context 可以携带父级路径等背景。
func (s *generationService) GenerateDescription(ctx context.Context, title, background string) (string, error) {
	messages := []llm.Message{
		llm.TextMessage("system", "你是一个知识库编辑，负责为条目撰写简洁准确的描述。"),
		llm.TextMessage("user", fmt.Sprintf("背景：%s\n请为条目「%s」写一段不超过两句话的描述，直接输出描述文本。", background, title)),
	}
	desc, err := s.llmClient.Complete(ctx, messages, s.genParams)
	if err != nil {
		log.Errorf("[GenerationService] 生成描述失败, title: %s, error: %v", title, err)
		return "", fmt.Errorf("生成描述失败: %w", err)
	}
	return strings.TrimSpace(desc), nil
}

// GenerateHierarchy 围绕一个主题生成嵌套的层级草稿，可直接交给节点导入。
func (s *generationService) GenerateHierarchy(ctx context.Context, topic string, depth int) ([]ImportNode, error) {
	if depth < 1 {
		depth = 2
	}
	if depth > 4 {
		depth = 4
	}
	messages := []llm.Message{
		llm.TextMessage("system", "你是一个知识库编辑，负责把主题拆解为层级化的大纲。"),
		llm.TextMessage("user", fmt.Sprintf(
			"围绕主题「%s」生成一个最多 %d 层的大纲。"+
				"只返回 JSON 数组，元素结构为 {\"title\": string, \"text\": string, \"childNodes\": [...]}，"+
				"不要输出任何其他文字。", topic, depth)),
	}
	raw, err := s.llmClient.Complete(ctx, messages, s.genParams)
	if err != nil {
		log.Errorf("[GenerationService] 生成层级大纲失败, topic: %s, error: %v", topic, err)
		return nil, fmt.Errorf("生成层级大纲失败: %w", err)
	}

	var nodes []ImportNode
	if err := json.Unmarshal([]byte(stripJSONFence(raw)), &nodes); err != nil {
		log.Errorf("[GenerationService] 解析模型返回的大纲失败, raw: %s, error: %v", raw, err)
		return nil, errors.New("模型返回的内容不是有效的大纲结构")
	}
	return nodes, nil
}

// stripJSONFence 去掉模型偶尔包在 JSON 外面的 markdown 代码围栏。
func stripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
