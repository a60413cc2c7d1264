package ai_services

import (
	"context"
	"fmt"
	"sort"

	"symples/database"
	"symples/models"
	"symples/utilities"
)

const maxTasksForAIContext = 15 // Limite de tarefas para enviar no contexto da IA

// recentTasksForAIContext resume as tarefas mais recentemente alteradas do workspace.
func recentTasksForAIContext(ctx context.Context, tasks database.TaskStore, workspaceID string, limit int) ([]models.TarefaContext, error) {
	list, err := tasks.ListTasks(ctx, models.TaskScope{WorkspaceID: workspaceID}, models.ListFilter{})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	if len(list) > limit {
		list = list[:limit]
	}

	tarefasCtx := make([]models.TarefaContext, 0, len(list))
	for _, t := range list {
		tarefasCtx = append(tarefasCtx, models.TarefaContext{
			Titulo:     t.Title,
			Status:     string(t.Status),
			Prioridade: string(t.Priority),
		})
	}
	return tarefasCtx, nil
}

// BuildContext busca e formata os dados de um workspace para a IA.
func BuildContext(ctx context.Context, workspaces database.WorkspaceStore, tasks database.TaskStore, workspaceID, userMessage string) (*models.IAWorkspaceContext, error) {
	utilities.LogDebug("BuildContext: montando contexto para workspace %s", workspaceID)

	wsInfo, err := workspaces.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("buscar workspace %s: %w", workspaceID, err)
	}

	members, err := workspaces.ListMembers(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("buscar membros do workspace %s: %w", workspaceID, err)
	}
	usuariosCtx := make([]models.UsuarioContext, len(members))
	for i, member := range members {
		usuariosCtx[i] = models.UsuarioContext{Nome: member.DisplayName, Role: string(member.Role)}
	}

	tarefasCtx, err := recentTasksForAIContext(ctx, tasks, workspaceID, maxTasksForAIContext)
	if err != nil {
		// Sem tarefas o modelo ainda consegue extrair da mensagem
		utilities.LogWarn("BuildContext: tarefas do workspace %s indisponíveis, seguindo com lista vazia: %v", workspaceID, err)
		tarefasCtx = []models.TarefaContext{}
	}

	return &models.IAWorkspaceContext{
		WorkspaceID:    workspaceID,
		GrupoNome:      wsInfo.Name,
		DescricaoGrupo: wsInfo.Description,
		Usuarios:       usuariosCtx,
		Tarefas:        tarefasCtx,
		MsgDoUsuario:   userMessage,
	}, nil
}
