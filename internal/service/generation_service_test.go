package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"node-hierarchy-go/internal/config"
	"node-hierarchy-go/pkg/llm"
)

type fakeLLMClient struct {
	reply    string
	err      error
	lastGen  *llm.GenerationParams
	messages []llm.Message
}

func (c *fakeLLMClient) Complete(ctx context.Context, messages []llm.Message, gen *llm.GenerationParams) (string, error) {
	c.messages = messages
	c.lastGen = gen
	return c.reply, c.err
}

func (c *fakeLLMClient) CompleteWithImage(ctx context.Context, prompt, mimeType, base64Image string) (string, error) {
	return c.reply, c.err
}

func (c *fakeLLMClient) StreamChatMessages(ctx context.Context, messages []llm.Message, gen *llm.GenerationParams, writer llm.MessageWriter) error {
	return c.err
}

func TestNewGenerationServiceBuildsPointerParams(t *testing.T) {
	client := &fakeLLMClient{reply: "一段描述"}
	svc := NewGenerationService(client, config.LLMGenerationConfig{
		Temperature: 0.7,
		MaxTokens:   512,
	})

	_, err := svc.GenerateDescription(context.Background(), "标题", "背景")
	require.NoError(t, err)

	// 配置过的字段按指针传入，未配置的保持 nil 让服务端用默认值
	require.NotNil(t, client.lastGen)
	require.NotNil(t, client.lastGen.Temperature)
	assert.Equal(t, 0.7, *client.lastGen.Temperature)
	require.NotNil(t, client.lastGen.MaxTokens)
	assert.Equal(t, 512, *client.lastGen.MaxTokens)
	assert.Nil(t, client.lastGen.TopP)
}

func TestNewGenerationServiceEmptyConfigOmitsParams(t *testing.T) {
	client := &fakeLLMClient{reply: "一段描述"}
	svc := NewGenerationService(client, config.LLMGenerationConfig{})

	_, err := svc.GenerateDescription(context.Background(), "标题", "背景")
	require.NoError(t, err)
	assert.Nil(t, client.lastGen)
}

func TestGenerateHierarchyParsesFencedJSON(t *testing.T) {
	client := &fakeLLMClient{reply: "```json\n[{\"title\":\"章节\",\"text\":\"\",\"childNodes\":[{\"title\":\"小节\"}]}]\n```"}
	svc := NewGenerationService(client, config.LLMGenerationConfig{})

	nodes, err := svc.GenerateHierarchy(context.Background(), "测试主题", 2)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "章节", nodes[0].Title)
	require.Len(t, nodes[0].ChildNodes, 1)
	assert.Equal(t, "小节", nodes[0].ChildNodes[0].Title)
}
