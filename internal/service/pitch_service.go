package service

import (
	"context"
	"errors"
	"fmt"

	"ai-mentor-go/internal/apperr"
	"ai-mentor-go/internal/model"
	"ai-mentor-go/internal/repository"
	"ai-mentor-go/pkg/llm"
	"ai-mentor-go/pkg/log"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 路演评估的任务指令，拼接在画像模板之后。
const pitchInstruction = `

The user will now present a startup pitch. Evaluate it in your own voice:
cover the problem, the solution, the market, and the team as far as the
pitch reveals them, point out the strongest and weakest parts, and close
with concrete, actionable advice.`

// PitchService 定义了路演评估的业务操作。评估是付费功能。
type PitchService interface {
	Evaluate(ctx context.Context, user *model.User, personaID, pitchText string) (*model.PitchEvaluationView, error)
	History(ctx context.Context, user *model.User) ([]model.PitchEvaluationView, error)
	Get(ctx context.Context, user *model.User, evaluationID string) (*model.PitchEvaluationView, error)
}

type pitchService struct {
	access      AccessService
	pitchRepo   repository.PitchRepository
	personaRepo repository.PersonaRepository
	llmClient   llm.Client
	maxTokens   int
}

// NewPitchService 创建一个新的 PitchService 实例。
// maxTokens 是评估输出的 token 预算，比普通聊天更宽裕。
func NewPitchService(
	access AccessService,
	pitchRepo repository.PitchRepository,
	personaRepo repository.PersonaRepository,
	llmClient llm.Client,
	maxTokens int,
) PitchService {
	if maxTokens <= 0 {
		maxTokens = 1500
	}
	return &pitchService{
		access:      access,
		pitchRepo:   pitchRepo,
		personaRepo: personaRepo,
		llmClient:   llmClient,
		maxTokens:   maxTokens,
	}
}

func (s *pitchService) Evaluate(ctx context.Context, user *model.User, personaID, pitchText string) (*model.PitchEvaluationView, error) {
	// 1. 付费门槛
	if !s.access.CanEvaluatePitch(user) {
		return nil, apperr.ErrPlanRestricted
	}

	// 2. 画像存在性。付费用户可见全部画像，无需再走可见性过滤。
	persona, err := s.personaRepo.FindByID(ctx, personaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	// 3. 阻塞式补全
	prompt := []llm.Message{
		{Role: "system", Content: persona.PromptTemplate + pitchInstruction},
		{Role: "user", Content: pitchText},
	}
	evaluation, err := s.llmClient.Complete(ctx, prompt, s.maxTokens)
	if err != nil {
		return nil, err
	}

	// 4. 评估写入后不可变
	eval := &model.PitchEvaluation{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		PersonaID:  persona.ID,
		PitchText:  pitchText,
		Evaluation: evaluation,
	}
	if err := s.pitchRepo.Create(ctx, eval); err != nil {
		return nil, fmt.Errorf("failed to persist pitch evaluation: %w", err)
	}

	basic := persona.Basic()
	return &model.PitchEvaluationView{PitchEvaluation: *eval, Persona: &basic}, nil
}

func (s *pitchService) History(ctx context.Context, user *model.User) ([]model.PitchEvaluationView, error) {
	evals, err := s.pitchRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	// 批量取画像展示字段
	idSet := make(map[string]bool, len(evals))
	ids := make([]string, 0, len(evals))
	for _, e := range evals {
		if !idSet[e.PersonaID] {
			idSet[e.PersonaID] = true
			ids = append(ids, e.PersonaID)
		}
	}
	personas, err := s.personaRepo.FindByIDs(ctx, ids)
	if err != nil {
		log.Errorf("获取评估画像失败: %v", err)
		personas = nil
	}
	basicByID := make(map[string]model.PersonaBasic, len(personas))
	for i := range personas {
		basicByID[personas[i].ID] = personas[i].Basic()
	}

	views := make([]model.PitchEvaluationView, 0, len(evals))
	for _, e := range evals {
		view := model.PitchEvaluationView{PitchEvaluation: e}
		if basic, ok := basicByID[e.PersonaID]; ok {
			b := basic
			view.Persona = &b
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *pitchService) Get(ctx context.Context, user *model.User, evaluationID string) (*model.PitchEvaluationView, error) {
	eval, err := s.pitchRepo.FindByIDForUser(ctx, evaluationID, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	view := &model.PitchEvaluationView{PitchEvaluation: *eval}
	if persona, err := s.personaRepo.FindByID(ctx, eval.PersonaID); err == nil {
		basic := persona.Basic()
		view.Persona = &basic
	}
	return view, nil
}
