package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"symples/models"
)

const aiHistoryCollection = "ai_request_history"

// AIHistoryStore grava o histórico do quick-add em
// workspaces/{id}/ai_request_history.
type AIHistoryStore struct {
	client *firestore.Client
}

func NewAIHistoryStore(client *firestore.Client) *AIHistoryStore {
	return &AIHistoryStore{client: client}
}

func (s *AIHistoryStore) collection(workspaceID string) *firestore.CollectionRef {
	return s.client.Collection("workspaces").Doc(workspaceID).Collection(aiHistoryCollection)
}

func (s *AIHistoryStore) AddAIRequest(ctx context.Context, entry models.AIRequestHistoryEntry) (string, error) {
	docRef, _, err := s.collection(entry.WorkspaceID).Add(ctx, entry)
	if err != nil {
		return "", fmt.Errorf("salvar histórico de IA do workspace %s: %w", entry.WorkspaceID, err)
	}
	return docRef.ID, nil
}

// ListAIRequests devolve as entradas mais recentes primeiro.
func (s *AIHistoryStore) ListAIRequests(ctx context.Context, workspaceID string, limit int) ([]models.AIRequestHistoryEntry, error) {
	iter := s.collection(workspaceID).OrderBy("timestamp", firestore.Desc).Limit(limit).Documents(ctx)
	defer iter.Stop()

	entries := []models.AIRequestHistoryEntry{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("erro ao buscar histórico de IA do workspace %s: %w", workspaceID, err)
		}
		var entry models.AIRequestHistoryEntry
		if err := doc.DataTo(&entry); err != nil {
			// entrada malformada não interrompe a listagem
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
