package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/apperrors"
	"github.com/menuguard/menuguard-engine/pkg/llm"
	"github.com/menuguard/menuguard-engine/pkg/logging"
	"github.com/menuguard/menuguard-engine/pkg/menufetch"
	"github.com/menuguard/menuguard-engine/pkg/models"
	"github.com/menuguard/menuguard-engine/pkg/prompts"
	"github.com/menuguard/menuguard-engine/pkg/retry"
)

// Model call temperatures. Classification runs cold for stable JSON;
// prose operations get some room.
const (
	analysisTemperature = 0.1
	proseTemperature    = 0.6
)

// defaultRequestTimeout bounds a single model call when configuration does
// not supply one.
const defaultRequestTimeout = 60 * time.Second

// AnalysisService orchestrates every model-backed menu operation.
type AnalysisService interface {
	// Analyze classifies each item of the request's menu source.
	// Returns apperrors.ErrNoMenuSource when no source is present.
	Analyze(ctx context.Context, req *models.AnalysisRequest) ([]models.AnalysisResultItem, error)

	// Summarize turns an analysis result list into short prose.
	Summarize(ctx context.Context, req *models.SummarizeRequest) (string, error)

	// Alternative suggests a substitute for one unsafe item.
	Alternative(ctx context.Context, req *models.AlternativeRequest) (string, error)

	// Chat continues a follow-up conversation. History's final turn must
	// equal the standalone message; it is stripped before the upstream
	// call so the active turn is never duplicated into the seed history.
	Chat(ctx context.Context, req *models.ChatRequest) (string, error)
}

type analysisService struct {
	client         llm.LLMClient
	prompts        *prompts.Library
	fetcher        menufetch.Fetcher
	breaker        *llm.CircuitBreaker
	retryCfg       *retry.Config
	requestTimeout time.Duration
	logger         *zap.Logger
}

// Compile-time check that analysisService implements AnalysisService
var _ AnalysisService = (*analysisService)(nil)

// NewAnalysisService creates the analysis orchestrator. requestTimeout
// bounds each individual model call; zero or negative selects the default.
func NewAnalysisService(client llm.LLMClient, promptLib *prompts.Library, fetcher menufetch.Fetcher, requestTimeout time.Duration, logger *zap.Logger) *analysisService {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	return &analysisService{
		client:         client,
		prompts:        promptLib,
		fetcher:        fetcher,
		breaker:        llm.NewCircuitBreaker(llm.DefaultCircuitBreakerConfig()),
		retryCfg:       retry.DefaultConfig(),
		requestTimeout: requestTimeout,
		logger:         logger.Named("analysis"),
	}
}

// Analyze classifies each item of the request's menu source.
func (s *analysisService) Analyze(ctx context.Context, req *models.AnalysisRequest) ([]models.AnalysisResultItem, error) {
	source, err := req.Source()
	if err != nil {
		return nil, err
	}

	system := s.prompts.AnalysisSystem(req.Allergies, req.Preferences)

	menuText := req.MenuText
	if source == models.MenuSourceURL {
		menuText, err = s.fetcher.FetchText(ctx, req.MenuURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
		}
	}

	s.logger.Info("starting menu analysis",
		zap.String("source", string(source)),
		zap.String("allergies", logging.SanitizePrompt(req.Allergies)))

	var response string
	if source == models.MenuSourceImage {
		response, err = s.generate(ctx, func(ctx context.Context) (string, error) {
			return s.client.GenerateWithImage(ctx, prompts.BuildImageAnalysisPrompt(), system, req.ImageData, req.ImageMIME, analysisTemperature)
		})
	} else {
		response, err = s.generate(ctx, func(ctx context.Context) (string, error) {
			return s.client.GenerateResponse(ctx, prompts.BuildAnalysisPrompt(menuText), system, analysisTemperature)
		})
	}
	if err != nil {
		return nil, err
	}

	// An empty model response means an empty menu, not a failure.
	if strings.TrimSpace(response) == "" {
		return []models.AnalysisResultItem{}, nil
	}

	items, err := llm.ParseJSONResponse[[]models.AnalysisResultItem](response)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed analysis response: %v", apperrors.ErrUpstream, err)
	}

	s.logger.Info("menu analysis completed", zap.Int("items", len(items)))
	return items, nil
}

// Summarize turns an analysis result list into short prose.
// The input list's shape is trusted as-is; the model sees whatever the
// caller classified.
func (s *analysisService) Summarize(ctx context.Context, req *models.SummarizeRequest) (string, error) {
	prompt := s.prompts.SummaryPrompt(req.Results, req.Allergies, req.Preferences)
	return s.generate(ctx, func(ctx context.Context) (string, error) {
		return s.client.GenerateResponse(ctx, prompt, s.prompts.SummarySystem(), proseTemperature)
	})
}

// Alternative suggests a substitute for one unsafe item.
func (s *analysisService) Alternative(ctx context.Context, req *models.AlternativeRequest) (string, error) {
	if req.UnsafeItemName == "" {
		return "", fmt.Errorf("%w: unsafeItemName is required", apperrors.ErrValidation)
	}
	prompt := prompts.BuildAlternativePrompt(req.UnsafeItemName, req.MenuContext, req.SafeItems, req.Allergies, req.Preferences)
	return s.generate(ctx, func(ctx context.Context) (string, error) {
		return s.client.GenerateResponse(ctx, prompt, s.prompts.AlternativeSystem(), proseTemperature)
	})
}

// Chat continues a follow-up conversation.
func (s *analysisService) Chat(ctx context.Context, req *models.ChatRequest) (string, error) {
	seed, err := seedHistory(req.History, req.Message)
	if err != nil {
		return "", err
	}

	system := s.prompts.ChatSystem(req.Allergies, req.Preferences)
	return s.generate(ctx, func(ctx context.Context) (string, error) {
		return s.client.GenerateConversation(ctx, system, seed, req.Message, proseTemperature)
	})
}

// seedHistory validates the history/message contract and converts the prior
// turns for the upstream call. The final history turn must be the message
// itself; it is dropped from the seed because the client resends it as the
// active turn.
func seedHistory(history []models.ChatTurn, message string) ([]llm.Message, error) {
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", apperrors.ErrValidation)
	}
	if len(history) == 0 {
		return nil, nil
	}

	last := history[len(history)-1]
	if !last.IsUser() || last.Content != message {
		return nil, apperrors.ErrChatHistoryMismatch
	}

	seed := make([]llm.Message, 0, len(history)-1)
	for _, turn := range history[:len(history)-1] {
		role := llm.RoleAssistant
		if turn.IsUser() {
			role = llm.RoleUser
		}
		seed = append(seed, llm.Message{Role: role, Content: turn.Content})
	}
	return seed, nil
}

// generate runs one model call behind the circuit breaker with bounded
// retries for transient failures. Each attempt gets its own timeout so a
// hung provider connection cannot pin the request.
func (s *analysisService) generate(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	if ok, err := s.breaker.Allow(); !ok {
		return "", fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	}

	response, err := retry.DoWithResult(ctx, s.retryCfg, func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
		return call(callCtx)
	})
	if err != nil {
		s.breaker.RecordFailure()
		s.logger.Warn("model call failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	}

	s.breaker.RecordSuccess()
	return response, nil
}
