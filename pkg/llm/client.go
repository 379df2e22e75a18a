// Package llm provides a client for interacting with the remote completion provider.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"ai-mentor-go/internal/apperr"
	"ai-mentor-go/internal/config"
	"ai-mentor-go/pkg/log"
)

// ChunkWriter 接收流式补全的文本分块。
// 既可以是 SSE/WebSocket 下发器，也可以是聊天服务的拦截器。
type ChunkWriter interface {
	WriteChunk(data []byte) error
}

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client defines the interface for a completion client.
type Client interface {
	// StreamChat 以流式模式调用补全接口，将文本分块依次写入 writer。
	// 流是有限且不可重放的：建立请求阶段按策略重试，流中断不重试。
	StreamChat(ctx context.Context, messages []Message, writer ChunkWriter) error
	// Complete 以阻塞模式调用补全接口，返回完整文本。maxTokens<=0 时使用配置默认值。
	Complete(ctx context.Context, messages []Message, maxTokens int) (string, error)
}

type openAIClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a new completion client from the config.
func NewClient(cfg config.LLMConfig) Client {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &openAIClient{
		cfg: cfg,
		// 流式响应的读取时间计入 Timeout，因此只限制建连与首包
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: timeout,
			},
		},
	}
}

type chatRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	Stream           bool      `json:"stream"`
	Temperature      *float64  `json:"temperature,omitempty"`
	FrequencyPenalty *float64  `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64  `json:"presence_penalty,omitempty"`
	MaxTokens        *int      `json:"max_tokens,omitempty"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) buildRequest(messages []Message, stream bool, maxTokens int) chatRequest {
	req := chatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   stream,
	}
	if c.cfg.Generation.Temperature != 0 {
		t := c.cfg.Generation.Temperature
		req.Temperature = &t
	}
	if c.cfg.Generation.FrequencyPenalty != 0 {
		f := c.cfg.Generation.FrequencyPenalty
		req.FrequencyPenalty = &f
	}
	if c.cfg.Generation.PresencePenalty != 0 {
		p := c.cfg.Generation.PresencePenalty
		req.PresencePenalty = &p
	}
	if maxTokens <= 0 {
		maxTokens = c.cfg.Generation.MaxTokens
	}
	if maxTokens > 0 {
		req.MaxTokens = &maxTokens
	}
	return req
}

// doWithRetry 建立补全请求：瞬时故障按指数退避加抖动重试，
// 不可重试的错误立即返回。调用方负责关闭返回的响应体。
func (c *openAIClient) doWithRetry(ctx context.Context, reqBody chatRequest) (*http.Response, error) {
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	maxRetries := c.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := time.Duration(c.cfg.RetryDelaySeconds) * time.Second
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// 指数退避 + 抖动，上限 10 秒
			delay := baseDelay << (attempt - 1)
			if delay > 10*time.Second {
				delay = 10 * time.Second
			}
			delay += time.Duration(rand.Int63n(int64(delay) / 2))
			log.Warnf("补全请求失败，%s 后重试 (%d/%d): %v", delay, attempt, maxRetries, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", apperr.ErrUpstreamUnavailable, ctx.Err())
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to create chat request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		if reqBody.Stream {
			req.Header.Set("Accept", "text/event-stream")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			// 连接失败/超时属于瞬时故障
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", apperr.ErrUpstreamUnavailable, ctx.Err())
			}
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return resp, nil
		}

		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if isRetryableStatus(resp.StatusCode) {
			lastErr = fmt.Errorf("completion api returned status %s: %s", resp.Status, string(bodyBytes))
			continue
		}

		// 鉴权/请求格式问题不可重试
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			log.Errorf("补全服务鉴权失败，请检查 api_key 配置: %s", resp.Status)
		}
		return nil, fmt.Errorf("%w: status %s: %s", apperr.ErrUpstreamRejected, resp.Status, string(bodyBytes))
	}

	return nil, fmt.Errorf("%w: %v", apperr.ErrUpstreamUnavailable, lastErr)
}

// isRetryableStatus 判断状态码是否属于瞬时故障（限流、超时、服务端错误）。
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests ||
		status == http.StatusRequestTimeout ||
		status >= http.StatusInternalServerError
}

// StreamChat 调用补全接口并解析 SSE 流，将每个文本分块写入 writer。
func (c *openAIClient) StreamChat(ctx context.Context, messages []Message, writer ChunkWriter) error {
	resp, err := c.doWithRetry(ctx, c.buildRequest(messages, true, 0))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			// 流已经开始，中断不可重试
			var netErr net.Error
			if errors.As(err, &netErr) || ctx.Err() != nil {
				return fmt.Errorf("%w: stream interrupted: %v", apperr.ErrUpstreamUnavailable, err)
			}
			return fmt.Errorf("failed to read from stream: %w", err)
		}

		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if strings.TrimSpace(data) == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		content := chunk.Choices[0].Delta.Content
		if content == "" {
			continue
		}
		if err := writer.WriteChunk([]byte(content)); err != nil {
			return fmt.Errorf("failed to write chunk: %w", err)
		}
	}
	return nil
}

// Complete 以非流式模式调用补全接口，返回完整文本。
func (c *openAIClient) Complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	resp, err := c.doWithRetry(ctx, c.buildRequest(messages, false, maxTokens))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: completion response has no choices", apperr.ErrUpstreamRejected)
	}
	return out.Choices[0].Message.Content, nil
}
