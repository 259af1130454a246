package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/pageza/knoweat/backend/internal/metrics"
	"github.com/pageza/knoweat/backend/internal/models"
	"github.com/pageza/knoweat/backend/internal/taxonomy"
)

// DefaultLanguage is used when a caller passes no target language.
const DefaultLanguage = "English"

// ErrNoInput is returned when an analysis is requested without photos or text.
var ErrNoInput = errors.New("menu analysis needs at least one photo or some text")

// Completer is the transport used by the analysis and retranslation clients.
type Completer interface {
	Complete(ctx context.Context, operation string, messages []Message) (string, error)
	Model() string
}

// MenuAnalyzer turns menu photos or text into a structured Menu through one model call.
type MenuAnalyzer struct {
	chat   Completer
	tax    *taxonomy.Taxonomy
	parser *replyParser
	cache  ReplyCache
	logger *zap.Logger
}

// NewMenuAnalyzer creates an analyzer. cache may be nil.
func NewMenuAnalyzer(chat Completer, tax *taxonomy.Taxonomy, cache ReplyCache, logger *zap.Logger) *MenuAnalyzer {
	if tax == nil {
		tax = taxonomy.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MenuAnalyzer{
		chat:   chat,
		tax:    tax,
		parser: &replyParser{tax: tax, logger: logger},
		cache:  cache,
		logger: logger,
	}
}

// AnalyzeMenu sends every photo in a single request and parses the reply into a Menu.
func (a *MenuAnalyzer) AnalyzeMenu(ctx context.Context, images [][]byte, userLanguage string) (*models.Menu, error) {
	if len(images) == 0 {
		return nil, ErrNoInput
	}
	userLanguage = languageOrDefault(userLanguage)

	encoded, err := EncodeImages(images)
	if err != nil {
		return nil, err
	}

	parts := make([]ContentPart, 0, len(encoded)+1)
	parts = append(parts, ContentPart{Type: "text", Text: analyzeImagesInstruction})
	payload := make([][]byte, 0, len(encoded))
	for _, img := range encoded {
		parts = append(parts, ContentPart{
			Type:     "image_url",
			ImageURL: &ImageURL{URL: dataURI(img), Detail: "high"},
		})
		payload = append(payload, []byte(img))
	}

	messages := []Message{
		{Role: "system", Content: buildAnalysisPrompt(a.tax, userLanguage)},
		{Role: "user", Content: parts},
	}
	return a.run(ctx, "analyze_images", userLanguage, payload, messages)
}

// AnalyzeMenuText analyzes menu text (for example pasted or OCR'd elsewhere) instead of photos.
func (a *MenuAnalyzer) AnalyzeMenuText(ctx context.Context, text, userLanguage string) (*models.Menu, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoInput
	}
	userLanguage = languageOrDefault(userLanguage)

	messages := []Message{
		{Role: "system", Content: buildAnalysisPrompt(a.tax, userLanguage)},
		{Role: "user", Content: analyzeTextInstruction + "\n\n" + text},
	}
	return a.run(ctx, "analyze_text", userLanguage, [][]byte{[]byte(text)}, messages)
}

func (a *MenuAnalyzer) run(ctx context.Context, operation, userLanguage string, payload [][]byte, messages []Message) (*models.Menu, error) {
	var menu *models.Menu
	err := completeWithCache(ctx, a.chat, a.cache, a.logger, operation,
		replyCacheKey(operation, a.chat.Model(), userLanguage, payload...),
		messages,
		func(content string) error {
			m, err := a.parser.parseMenu(content, userLanguage)
			menu = m
			return err
		})
	if err != nil {
		return nil, err
	}
	return menu, nil
}

// completeWithCache consults the cache, otherwise calls the model once. Only replies that
// parse are cached. Cache failures are logged and never fail the call.
func completeWithCache(ctx context.Context, chat Completer, cache ReplyCache, logger *zap.Logger,
	operation, key string, messages []Message, parse func(string) error) error {

	if cache != nil {
		content, ok, err := cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues("error").Inc()
			logger.Warn("reply cache lookup failed", zap.String("operation", operation), zap.Error(err))
		case ok:
			if parse(content) == nil {
				metrics.CacheLookups.WithLabelValues("hit").Inc()
				return nil
			}
			logger.Warn("discarding unparsable cached reply", zap.String("operation", operation))
		default:
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	content, err := chat.Complete(ctx, operation, messages)
	if err != nil {
		return err
	}
	if err := parse(content); err != nil {
		logger.Warn("model reply rejected",
			zap.String("operation", operation),
			zap.String("kind", string(KindOf(err))),
			zap.Error(err))
		return err
	}

	if cache != nil {
		if err := cache.Set(ctx, key, content); err != nil {
			logger.Warn("failed to cache model reply", zap.String("operation", operation), zap.Error(err))
		}
	}
	return nil
}

func languageOrDefault(lang string) string {
	if lang = strings.TrimSpace(lang); lang == "" {
		return DefaultLanguage
	}
	return lang
}
