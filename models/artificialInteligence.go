package models

import "time"

// UsuarioContext fornece detalhes do membro para o prompt da IA
type UsuarioContext struct {
	Nome string `json:"nome"`
	Role string `json:"role,omitempty"`
}

// TarefaContext é a versão resumida da tarefa enviada no prompt
type TarefaContext struct {
	Titulo     string `json:"titulo"`
	Status     string `json:"status,omitempty"`
	Prioridade string `json:"prioridade,omitempty"`
}

// IAWorkspaceContext representa o contexto do workspace enviado para a IA
type IAWorkspaceContext struct {
	WorkspaceID    string           `json:"workspace_id"`
	GrupoNome      string           `json:"grupo_nome"`
	DescricaoGrupo string           `json:"descricao_grupo"`
	Usuarios       []UsuarioContext `json:"usuarios"`
	Tarefas        []TarefaContext  `json:"tarefas_recentes"`
	MsgDoUsuario   string           `json:"msg_do_usuario_atual"`
}

// AIRequestHistoryEntry representa um registro de requisição à IA no Firestore.
type AIRequestHistoryEntry struct {
	UserID         string      `firestore:"user_id"`
	WorkspaceID    string      `firestore:"workspace_id"`
	AIServiceType  string      `firestore:"ai_service_type"` // ex: "quick_add"
	Timestamp      time.Time   `firestore:"timestamp"`
	RequestPayload interface{} `firestore:"request_payload,omitempty"`
	ResponseFromAI interface{} `firestore:"response_from_ai,omitempty"`
	UsedModel      bool        `firestore:"used_model"`
	AIError        string      `firestore:"ai_error,omitempty"`
}

// ExtractedTask é uma tarefa reconhecida em texto livre (digitado ou transcrito).
type ExtractedTask struct {
	Title    string     `json:"title"`
	DueDate  *time.Time `json:"due_date,omitempty"`
	Priority Priority   `json:"priority,omitempty"`
}

// QuickAddRequest é o corpo do quick-add do chat.
type QuickAddRequest struct {
	Message string         `json:"message"`
	Create  bool           `json:"create"`
	Origin  *OriginContext `json:"origin,omitempty"`
}

type QuickAddResponse struct {
	Tasks     []ExtractedTask `json:"tasks"`
	Created   []Task          `json:"created,omitempty"`
	UsedModel bool            `json:"used_model"`
}
