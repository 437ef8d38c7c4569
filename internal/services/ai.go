package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"interntrack/internal/ai"
	"interntrack/internal/models"
	"interntrack/internal/store"
)

// AIClient is the text-assist collaborator. Implementations must honour ctx.
type AIClient interface {
	Refine(ctx context.Context, content string) (string, int, error)
	Structure(ctx context.Context, content string) (ai.ARAS, int, error)
	Model() string
}

type AIInput struct {
	JournalID string `json:"journal_id" validate:"required,uuid"`
	Content   string `json:"content" validate:"required"`
}

type RefineResult struct {
	Refined    string `json:"refined"`
	TokensUsed int    `json:"tokens_used"`
}

type StructureResult struct {
	ai.ARAS
	TokensUsed int `json:"tokens_used"`
}

// Refine polishes the wording of a draft and stores the result next to the
// raw content. Finished entries are never touched.
func (s *JournalService) Refine(ctx context.Context, userID uuid.UUID, in AIInput) (RefineResult, error) {
	entry, content, err := s.aiTarget(ctx, userID, in)
	if err != nil {
		return RefineResult{}, err
	}
	refined, tokens, err := s.ai.Refine(ctx, content)
	if err != nil {
		s.log.Error("ai refine failed", zap.String("journal_id", entry.ID.String()), zap.Error(err))
		return RefineResult{}, upstream("AI refinement", err)
	}
	if err := s.storeAI(ctx, userID, entry.ID, store.AIPatch{ContentAIRefined: &refined}); err != nil {
		return RefineResult{}, err
	}
	s.logAI(ctx, userID, entry.ID, models.AIActionRefine, content, refined, tokens)
	return RefineResult{Refined: refined, TokensUsed: tokens}, nil
}

// Structure splits a draft into ARAS sections.
func (s *JournalService) Structure(ctx context.Context, userID uuid.UUID, in AIInput) (StructureResult, error) {
	entry, content, err := s.aiTarget(ctx, userID, in)
	if err != nil {
		return StructureResult{}, err
	}
	out, tokens, err := s.ai.Structure(ctx, content)
	if err != nil {
		s.log.Error("ai structure failed", zap.String("journal_id", entry.ID.String()), zap.Error(err))
		return StructureResult{}, upstream("AI structuring", err)
	}
	patch := store.AIPatch{
		ArasAction:     &out.Action,
		ArasReflection: &out.Reflection,
		ArasAnalysis:   &out.Analysis,
		ArasSummary:    &out.Summary,
	}
	if err := s.storeAI(ctx, userID, entry.ID, patch); err != nil {
		return StructureResult{}, err
	}
	raw, _ := json.Marshal(out)
	s.logAI(ctx, userID, entry.ID, models.AIActionARAS, content, string(raw), tokens)
	return StructureResult{ARAS: out, TokensUsed: tokens}, nil
}

func (s *JournalService) aiTarget(ctx context.Context, userID uuid.UUID, in AIInput) (models.JournalEntry, string, error) {
	if err := validateStruct(in); err != nil {
		return models.JournalEntry{}, "", err
	}
	content := strings.TrimSpace(in.Content)
	switch n := utf8.RuneCountInString(content); {
	case n < MinAIContentLength:
		return models.JournalEntry{}, "", newError(KindValidation, "content must be at least 10 characters")
	case n > MaxAIContentLength:
		return models.JournalEntry{}, "", newError(KindValidation, "content must be at most 20000 characters")
	}
	id := uuid.MustParse(in.JournalID)
	entry, err := s.store.GetEntryByID(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.JournalEntry{}, "", newError(KindNotFound, "journal entry not found")
	}
	if err != nil {
		return models.JournalEntry{}, "", wrapError(KindInternal, "could not load journal entry", err)
	}
	if entry.IsFinished() {
		return models.JournalEntry{}, "", newError(KindForbidden, "cannot modify a finished journal entry")
	}
	return entry, content, nil
}

func (s *JournalService) storeAI(ctx context.Context, userID, id uuid.UUID, patch store.AIPatch) error {
	_, err := s.store.UpdateAI(ctx, userID, id, patch, s.now())
	switch {
	case errors.Is(err, store.ErrEntryFinished):
		return newError(KindForbidden, "cannot modify a finished journal entry")
	case errors.Is(err, store.ErrNotFound):
		return newError(KindNotFound, "journal entry not found")
	case err != nil:
		return wrapError(KindInternal, "could not save AI output", err)
	}
	return nil
}

// logAI records usage. A failed insert is logged and does not fail the request.
func (s *JournalService) logAI(ctx context.Context, userID, journalID uuid.UUID, action models.AIAction, in, out string, tokens int) {
	err := s.store.InsertAILog(ctx, models.AILog{
		ID:         uuid.New(),
		UserID:     userID,
		JournalID:  journalID,
		Action:     action,
		InputText:  in,
		OutputText: out,
		Model:      s.ai.Model(),
		TokensUsed: tokens,
		CreatedAt:  s.now(),
	})
	if err != nil {
		s.log.Warn("ai log insert failed", zap.String("journal_id", journalID.String()), zap.Error(err))
	}
}
