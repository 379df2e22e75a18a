package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-mentor-go/internal/apperr"
	"ai-mentor-go/internal/model"
	"ai-mentor-go/internal/repository"
	"ai-mentor-go/pkg/llm"
	"ai-mentor-go/pkg/log"
	"ai-mentor-go/pkg/tasks"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// 会话标题取首条消息的前 30 个字符。
	titleRuneLimit = 30
	// 提示词携带的历史消息条数上限。
	historyWindow = 10
)

// ChatRequest 是一次聊天回合的入参。ConversationID 为空时惰性创建会话。
type ChatRequest struct {
	PersonaID      string `json:"persona_id" binding:"required"`
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message" binding:"required"`
}

// TurnResult 是一次聊天回合完成后的结果。
type TurnResult struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	Content        string `json:"content"`
	CreditsLeft    int    `json:"credits_left"`
}

// ReconPublisher 把对账任务投递到消息队列。可注入，便于测试。
type ReconPublisher func(task tasks.ReconciliationTask) error

// ChatService 编排一次完整的聊天回合。
type ChatService interface {
	// StreamTurn 执行一次聊天回合，把模型输出的分块写入 writer。
	// 流开始前的失败通过返回值报告；流开始后的部分失败在内部收敛：
	// 已产出的文本会被持久化，额度只在产出后扣减一次。
	StreamTurn(ctx context.Context, user *model.User, req ChatRequest, writer llm.ChunkWriter) (*TurnResult, error)
}

type chatService struct {
	access       AccessService
	ledger       LedgerService
	convRepo     repository.ConversationRepository
	messageRepo  repository.MessageRepository
	llmClient    llm.Client
	search       SearchService  // 可为 nil，检索功能未启用时跳过索引
	publishRecon ReconPublisher // 可为 nil
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(
	access AccessService,
	ledger LedgerService,
	convRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	llmClient llm.Client,
	search SearchService,
	publishRecon ReconPublisher,
) ChatService {
	return &chatService{
		access:       access,
		ledger:       ledger,
		convRepo:     convRepo,
		messageRepo:  messageRepo,
		llmClient:    llmClient,
		search:       search,
		publishRecon: publishRecon,
	}
}

// teeWriter 在转发分块给客户端的同时，把全文累积到 builder 里用于落库。
// 客户端断开后停止转发，但继续累积模型已产出的文本。
type teeWriter struct {
	inner        llm.ChunkWriter
	builder      strings.Builder
	clientBroken bool
}

func (w *teeWriter) WriteChunk(data []byte) error {
	w.builder.Write(data)
	if !w.clientBroken {
		if err := w.inner.WriteChunk(data); err != nil {
			w.clientBroken = true
			log.Warnf("客户端连接中断，剩余分块只累积不转发: %v", err)
		}
	}
	return nil
}

func (s *chatService) StreamTurn(ctx context.Context, user *model.User, req ChatRequest, writer llm.ChunkWriter) (*TurnResult, error) {
	// 1. 套餐可见性
	persona, err := s.access.GetPersona(ctx, user, req.PersonaID)
	if err != nil {
		return nil, err
	}

	// 2. 额度预检。真正的扣减发生在回合完成之后。
	if !s.ledger.CheckCredits(user) {
		return nil, apperr.ErrInsufficientCredits
	}

	// 3. 定位或创建会话
	conv, err := s.ensureConversation(ctx, user, req)
	if err != nil {
		return nil, err
	}

	// 4. 历史窗口在写入新消息之前截取
	history, err := s.messageRepo.ListByConversation(ctx, conv.ID, 0)
	if err != nil {
		return nil, err
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	// 5. 落库用户消息并推进会话时间戳
	now := time.Now()
	userMsg := &model.Message{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		PersonaID:      persona.ID,
		ConversationID: conv.ID,
		Content:        req.Message,
		IsUser:         true,
	}
	if err := s.messageRepo.Create(ctx, userMsg); err != nil {
		return nil, err
	}
	if err := s.convRepo.TouchLastMessage(ctx, conv.ID, now); err != nil {
		log.Errorf("推进会话时间戳失败: %v", err)
	}

	// 6. 助手消息以空占位写入，流结束后恰好更新一次
	assistantMsg := &model.Message{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		PersonaID:      persona.ID,
		ConversationID: conv.ID,
		Content:        "",
		IsUser:         false,
	}
	if err := s.messageRepo.Create(ctx, assistantMsg); err != nil {
		return nil, err
	}

	// 7. 组装提示词并开始流式补全
	prompt := buildPrompt(persona, history, req.Message)
	tee := &teeWriter{inner: writer}
	streamErr := s.llmClient.StreamChat(ctx, prompt, tee)
	finalText := tee.builder.String()

	// 8. 终态落库使用独立的 context：客户端断开不应阻止持久化
	bg := context.Background()

	if streamErr != nil && finalText == "" {
		// 一个字都没产出：显式落空文本，不扣额度
		if err := s.messageRepo.UpdateContent(bg, assistantMsg.ID, ""); err != nil {
			log.Errorf("落空助手消息失败: %v", err)
		}
		return nil, streamErr
	}
	if streamErr != nil {
		// 产出了部分文本（断流/断连）：照常持久化，照常计费
		log.Warnf("补全流提前结束，持久化部分文本 (%d 字节): %v", len(finalText), streamErr)
	}

	finalizeErr := s.messageRepo.UpdateContent(bg, assistantMsg.ID, finalText)
	if finalizeErr != nil {
		log.Errorf("落库助手消息失败: %v", finalizeErr)
	}
	if err := s.convRepo.TouchLastMessage(bg, conv.ID, time.Now()); err != nil {
		log.Errorf("推进会话时间戳失败: %v", err)
	}

	// 9. 扣减恰好一次，发生在产出之后
	creditsLeft, decErr := s.ledger.Decrement(bg, user)
	switch {
	case errors.Is(decErr, apperr.ErrInsufficientCredits):
		// 预检之后余额被并发耗尽：内容已交付，不回滚
		log.Warnf("用户 %s 的额度在回合中被并发耗尽", user.ID)
	case decErr != nil:
		log.Errorf("扣减额度失败: %v", decErr)
	case finalizeErr != nil:
		// 额度已扣但消息未终态：投递对账事件
		s.emitRecon(tasks.ReconciliationTask{
			TaskID: assistantMsg.ID,
			Kind:   model.ReconCreditUnfinalized,
			UserID: user.ID,
			Detail: "assistant message not finalized after credit spent: " + finalizeErr.Error(),
		})
	}

	// 10. 尽力而为地写入检索索引
	s.indexMessage(bg, userMsg)
	if finalizeErr == nil {
		assistantMsg.Content = finalText
		s.indexMessage(bg, assistantMsg)
	}

	return &TurnResult{
		ConversationID: conv.ID,
		MessageID:      assistantMsg.ID,
		Content:        finalText,
		CreditsLeft:    creditsLeft,
	}, nil
}

func (s *chatService) ensureConversation(ctx context.Context, user *model.User, req ChatRequest) (*model.Conversation, error) {
	if req.ConversationID != "" {
		conv, err := s.convRepo.FindByIDForUser(ctx, req.ConversationID, user.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.ErrNotFound
			}
			return nil, err
		}
		return conv, nil
	}

	conv := &model.Conversation{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		PersonaID:     req.PersonaID,
		Title:         truncateRunes(req.Message, titleRuneLimit),
		LastMessageAt: time.Now(),
	}
	if err := s.convRepo.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// buildPrompt 组装提示词：画像模板做 system，最近的历史按角色排列，新消息收尾。
func buildPrompt(persona *model.Persona, history []model.Message, newMessage string) []llm.Message {
	prompt := make([]llm.Message, 0, len(history)+2)
	prompt = append(prompt, llm.Message{Role: "system", Content: persona.PromptTemplate})
	for _, msg := range history {
		role := "assistant"
		if msg.IsUser {
			role = "user"
		}
		if msg.Content == "" {
			continue
		}
		prompt = append(prompt, llm.Message{Role: role, Content: msg.Content})
	}
	prompt = append(prompt, llm.Message{Role: "user", Content: newMessage})
	return prompt
}

func (s *chatService) emitRecon(task tasks.ReconciliationTask) {
	if s.publishRecon == nil {
		return
	}
	if err := s.publishRecon(task); err != nil {
		log.Errorf("投递对账任务失败: kind=%s, %v", task.Kind, err)
	}
}

func (s *chatService) indexMessage(ctx context.Context, msg *model.Message) {
	if s.search == nil {
		return
	}
	doc := model.EsMessage{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		UserID:         msg.UserID,
		PersonaID:      msg.PersonaID,
		Content:        msg.Content,
		IsUser:         msg.IsUser,
		CreatedAt:      time.Now().UnixMilli(),
	}
	if err := s.search.IndexMessage(ctx, doc); err != nil {
		log.Errorf("索引消息 %s 失败: %v", msg.ID, err)
	}
}
