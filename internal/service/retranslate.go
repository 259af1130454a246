package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/pageza/knoweat/backend/internal/models"
	"github.com/pageza/knoweat/backend/internal/taxonomy"
)

// Retranslator asks the model to translate an existing dish list into another language.
type Retranslator struct {
	chat   Completer
	parser *replyParser
	cache  ReplyCache
	logger *zap.Logger
	// marshal serializes the outgoing dish list; json.Marshal outside tests.
	marshal func(v interface{}) ([]byte, error)
}

// NewRetranslator creates a retranslation client. cache may be nil.
func NewRetranslator(chat Completer, tax *taxonomy.Taxonomy, cache ReplyCache, logger *zap.Logger) *Retranslator {
	if tax == nil {
		tax = taxonomy.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retranslator{
		chat:    chat,
		parser:  &replyParser{tax: tax, logger: logger},
		cache:   cache,
		logger:  logger,
		marshal: json.Marshal,
	}
}

// Retranslate returns translated copies of dishes with new ids. Description, price and
// tags are expected back unchanged. The reply must hold one dish per input dish.
func (r *Retranslator) Retranslate(ctx context.Context, dishes []models.Dish, targetLanguage string) ([]models.Dish, error) {
	if len(dishes) == 0 {
		return []models.Dish{}, nil
	}
	targetLanguage = languageOrDefault(targetLanguage)

	wire := make([]dishWire, len(dishes))
	for i, d := range dishes {
		wire[i] = dishToWire(d)
	}
	// EncodingFailed is reserved for photos; a dish list that cannot be serialized is InvalidResponse.
	payload, err := r.marshal(wire)
	if err != nil {
		return nil, newAnalysisError(KindInvalidResponse, err, "failed to serialize dishes")
	}

	messages := []Message{
		{Role: "system", Content: buildRetranslationPrompt(targetLanguage)},
		{Role: "user", Content: string(payload)},
	}

	var translated []models.Dish
	err = completeWithCache(ctx, r.chat, r.cache, r.logger, "retranslate",
		replyCacheKey("retranslate", r.chat.Model(), targetLanguage, payload),
		messages,
		func(content string) error {
			out, err := r.parser.parseDishes(content)
			if err != nil {
				return err
			}
			if len(out) != len(dishes) {
				return newAnalysisError(KindInvalidResponse, nil, "expected %d dishes back, got %d", len(dishes), len(out))
			}
			translated = out
			return nil
		})
	if err != nil {
		return nil, err
	}
	return translated, nil
}
