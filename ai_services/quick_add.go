package ai_services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"symples/database"
	"symples/flows"
	"symples/models"
	"symples/utilities"
)

// QuickAddService transforma a mensagem do chat em tarefas. Sem modelo
// configurado, ou quando ele falha, só as heurísticas são usadas.
type QuickAddService struct {
	extractor  flows.Extractor
	tasks      database.TaskStore
	workspaces database.WorkspaceStore
	history    HistoryWriter
	now        func() time.Time
}

func NewQuickAddService(extractor flows.Extractor, tasks database.TaskStore, workspaces database.WorkspaceStore, history HistoryWriter) *QuickAddService {
	return &QuickAddService{
		extractor:  extractor,
		tasks:      tasks,
		workspaces: workspaces,
		history:    history,
		now:        time.Now,
	}
}

func (s *QuickAddService) Run(ctx context.Context, scope models.TaskScope, uid string, req models.QuickAddRequest) (models.QuickAddResponse, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return models.QuickAddResponse{}, &models.ValidationError{Field: "message", Message: "a mensagem é obrigatória"}
	}
	now := s.now()

	resp := models.QuickAddResponse{}
	var modelErr error
	if s.extractor != nil {
		in := flows.Input{Message: msg, Now: now}
		if !scope.Personal() && s.workspaces != nil {
			wsCtx, err := BuildContext(ctx, s.workspaces, s.tasks, scope.WorkspaceID, msg)
			if err != nil {
				utilities.LogWarn("QuickAdd: contexto do workspace %s indisponível: %v", scope.WorkspaceID, err)
			} else {
				in.Context = wsCtx
			}
		}
		resp.Tasks, modelErr = s.extractor.Extract(ctx, in)
		if modelErr != nil {
			utilities.LogWarn("QuickAdd: modelo falhou, usando heurísticas: %v", modelErr)
			utilities.GetMetrics().AIRequestsTotal.WithLabelValues("error").Inc()
		} else {
			resp.UsedModel = true
			utilities.GetMetrics().AIRequestsTotal.WithLabelValues("model").Inc()
		}
	}
	if !resp.UsedModel {
		task := ExtractHeuristic(msg, now)
		if task.Title == "" {
			task.Title = msg
		}
		resp.Tasks = []models.ExtractedTask{task}
		utilities.GetMetrics().AIRequestsTotal.WithLabelValues("heuristic").Inc()
	}

	if req.Create {
		origin := models.ManualOrigin()
		if req.Origin != nil {
			origin = req.Origin.Clone()
		}
		for _, t := range resp.Tasks {
			if strings.TrimSpace(t.Title) == "" {
				continue
			}
			created, err := s.tasks.CreateTask(ctx, scope, uid, models.CreateTaskInput{
				Title:    t.Title,
				Priority: t.Priority,
				DueDate:  t.DueDate,
				Origin:   origin,
			})
			if err != nil {
				return models.QuickAddResponse{}, fmt.Errorf("criar tarefa %q: %w", t.Title, err)
			}
			resp.Created = append(resp.Created, created)
		}
	}

	LogAIInteraction(ctx, s.history, uid, scope.WorkspaceID, quickAddServiceType,
		map[string]interface{}{"message": msg, "create": req.Create},
		historyTasks(resp.Tasks), resp.UsedModel, modelErr)

	return resp, nil
}

func historyTasks(tasks []models.ExtractedTask) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(tasks))
	for _, t := range tasks {
		m := map[string]interface{}{"title": t.Title, "priority": string(t.Priority)}
		if t.DueDate != nil {
			m["due_date"] = *t.DueDate
		}
		out = append(out, m)
	}
	return out
}
