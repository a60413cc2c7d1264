package ai_services

import (
	"context"
	"time"

	"symples/models"
	"symples/utilities"
)

const quickAddServiceType = "quick_add"

// HistoryWriter é satisfeito por *firebase.AIHistoryStore.
type HistoryWriter interface {
	AddAIRequest(ctx context.Context, entry models.AIRequestHistoryEntry) (string, error)
}

// LogAIInteraction registra uma interação com a IA. Falhas são apenas logadas:
// o histórico não impede o fluxo principal.
func LogAIInteraction(
	ctx context.Context,
	history HistoryWriter,
	userID string,
	workspaceID string,
	serviceType string,
	payload interface{},
	response interface{},
	usedModel bool,
	aiCallError error,
) {
	if history == nil || workspaceID == "" {
		return
	}

	entry := models.AIRequestHistoryEntry{
		UserID:         userID,
		WorkspaceID:    workspaceID,
		AIServiceType:  serviceType,
		Timestamp:      time.Now(),
		RequestPayload: payload,
		ResponseFromAI: response,
		UsedModel:      usedModel,
	}
	if aiCallError != nil {
		entry.AIError = aiCallError.Error()
	}

	docID, err := history.AddAIRequest(ctx, entry)
	if err != nil {
		utilities.LogError(err, "LogAIInteraction: falha ao salvar histórico de IA do workspace "+workspaceID)
		return
	}
	utilities.LogDebug("LogAIInteraction: histórico de IA salvo com ID %s para workspace %s", docID, workspaceID)
}
