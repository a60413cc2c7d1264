package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"symples/models"
)

// TokenSource devolve o ID token do Firebase enviado no cabeçalho Authorization.
type TokenSource func(ctx context.Context) (string, error)

// RemoteError é a resposta de erro da API no envelope {success:false,error}.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("api respondeu %d: %s", e.StatusCode, e.Message)
}

// RemotePersister grava movimentos pela rota PATCH de movimentação da API.
type RemotePersister struct {
	BaseURL     string
	WorkspaceID string // vazio = tarefas pessoais
	Token       TokenSource
	Client      *http.Client
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (p *RemotePersister) MoveTask(ctx context.Context, taskID string, move models.TaskMove) (models.Task, error) {
	body, err := json.Marshal(move)
	if err != nil {
		return models.Task{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, p.moveURL(taskID), bytes.NewReader(body))
	if err != nil {
		return models.Task{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.Token != nil {
		token, err := p.Token(ctx)
		if err != nil {
			return models.Task{}, fmt.Errorf("obter token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.Task{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.Task{}, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return models.Task{}, &RemoteError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	if resp.StatusCode >= 300 || !env.Success {
		return models.Task{}, &RemoteError{StatusCode: resp.StatusCode, Message: env.Error}
	}

	var task models.Task
	if err := json.Unmarshal(env.Data, &task); err != nil {
		return models.Task{}, fmt.Errorf("decodificar tarefa: %w", err)
	}
	return task, nil
}

func (p *RemotePersister) moveURL(taskID string) string {
	base := strings.TrimRight(p.BaseURL, "/")
	if p.WorkspaceID == "" {
		return base + "/tasks/move/" + url.PathEscape(taskID)
	}
	return base + "/workspace/" + url.PathEscape(p.WorkspaceID) + "/task/move/" + url.PathEscape(taskID)
}
