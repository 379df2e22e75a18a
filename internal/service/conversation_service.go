package service

import (
	"context"
	"errors"

	"ai-mentor-go/internal/apperr"
	"ai-mentor-go/internal/model"
	"ai-mentor-go/internal/repository"
	"ai-mentor-go/pkg/log"

	"gorm.io/gorm"
)

// 会话列表中最后一条消息的预览长度（按字符计）。
const previewRuneLimit = 50

// ConversationDetail 是会话详情视图：会话行加上按时间升序的消息。
type ConversationDetail struct {
	Conversation model.Conversation `json:"conversation"`
	Messages     []model.Message    `json:"messages"`
}

// ConversationService 定义了会话的查询与删除操作。
// 所有操作都以用户为边界：访问他人的会话一律按不存在处理。
type ConversationService interface {
	List(ctx context.Context, user *model.User, limit, offset int) ([]model.ConversationSummary, error)
	Get(ctx context.Context, user *model.User, conversationID string, messageLimit int) (*ConversationDetail, error)
	Delete(ctx context.Context, user *model.User, conversationID string) error
	// SearchMessages 在用户自己的消息里做全文检索。
	SearchMessages(ctx context.Context, user *model.User, query string, size int) ([]model.EsMessage, error)
}

type conversationService struct {
	convRepo    repository.ConversationRepository
	messageRepo repository.MessageRepository
	personaRepo repository.PersonaRepository
	search      SearchService
}

// NewConversationService 创建一个新的 ConversationService 实例。
func NewConversationService(
	convRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	personaRepo repository.PersonaRepository,
	search SearchService,
) ConversationService {
	return &conversationService{
		convRepo:    convRepo,
		messageRepo: messageRepo,
		personaRepo: personaRepo,
		search:      search,
	}
}

// List 组装会话摘要：画像展示字段 + 最后一条消息的预览。
func (s *conversationService) List(ctx context.Context, user *model.User, limit, offset int) ([]model.ConversationSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	convs, err := s.convRepo.ListByUser(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, err
	}

	// 批量取画像，避免每行一次查询
	personaIDs := make([]string, 0, len(convs))
	seen := make(map[string]bool, len(convs))
	for _, conv := range convs {
		if !seen[conv.PersonaID] {
			seen[conv.PersonaID] = true
			personaIDs = append(personaIDs, conv.PersonaID)
		}
	}
	personas, err := s.personaRepo.FindByIDs(ctx, personaIDs)
	if err != nil {
		return nil, err
	}
	personaByID := make(map[string]model.Persona, len(personas))
	for _, p := range personas {
		personaByID[p.ID] = p
	}

	summaries := make([]model.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summary := model.ConversationSummary{
			ID:            conv.ID,
			Title:         conv.Title,
			PersonaID:     conv.PersonaID,
			LastMessageAt: conv.LastMessageAt,
		}
		if p, ok := personaByID[conv.PersonaID]; ok {
			summary.PersonaName = p.Name
			summary.PersonaAvatarURL = p.AvatarURL
		}

		latest, err := s.messageRepo.LatestByConversation(ctx, conv.ID)
		if err != nil {
			// 预览缺失不应让整个列表失败
			log.Errorf("获取会话 %s 的最后一条消息失败: %v", conv.ID, err)
		} else if latest != nil {
			summary.LastMessage = truncateRunes(latest.Content, previewRuneLimit)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *conversationService) Get(ctx context.Context, user *model.User, conversationID string, messageLimit int) (*ConversationDetail, error) {
	conv, err := s.convRepo.FindByIDForUser(ctx, conversationID, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	msgs, err := s.messageRepo.ListByConversation(ctx, conversationID, messageLimit)
	if err != nil {
		return nil, err
	}
	return &ConversationDetail{Conversation: *conv, Messages: msgs}, nil
}

func (s *conversationService) Delete(ctx context.Context, user *model.User, conversationID string) error {
	// 先做属主校验，再在事务内删除消息与会话
	if _, err := s.convRepo.FindByIDForUser(ctx, conversationID, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}
		return err
	}
	return s.convRepo.DeleteWithMessages(ctx, conversationID)
}

func (s *conversationService) SearchMessages(ctx context.Context, user *model.User, query string, size int) ([]model.EsMessage, error) {
	if s.search == nil {
		return []model.EsMessage{}, nil
	}
	return s.search.SearchMessages(ctx, user.ID, query, size)
}

// truncateRunes 按字符截断并加省略号，避免把多字节字符切成乱码。
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
