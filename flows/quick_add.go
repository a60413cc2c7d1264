package flows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"symples/models"
)

var ErrNoTasks = errors.New("o modelo não devolveu nenhuma tarefa")

// Input é o que o quick-add envia para o modelo.
type Input struct {
	Message string
	Now     time.Time
	Context *models.IAWorkspaceContext
}

// Extractor transforma uma mensagem livre em tarefas.
type Extractor interface {
	Extract(ctx context.Context, in Input) ([]models.ExtractedTask, error)
}

// QuickAddFlow pede ao modelo de linguagem as tarefas contidas na mensagem.
type QuickAddFlow struct {
	llm llms.Model
}

func NewQuickAddFlow(llm llms.Model) *QuickAddFlow {
	return &QuickAddFlow{llm: llm}
}

// NewOpenAIModel cria o cliente de um endpoint compatível com a API da OpenAI.
func NewOpenAIModel(apiKey, model, baseURL string) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar cliente do modelo %s: %w", model, err)
	}
	return llm, nil
}

const quickAddPrompt = `Você organiza tarefas de um aplicativo de produtividade.
Extraia da mensagem do usuário todas as tarefas mencionadas.

Data e hora atuais: %s (%s)

Responda APENAS com uma lista JSON, sem texto adicional, no formato:
[{"title": "...", "due_date": "AAAA-MM-DDTHH:MM:SS", "priority": "low|medium|high|urgent"}]

Regras:
- "title" é curto e não repete a data nem a prioridade.
- Omita "due_date" quando não houver prazo. Datas relativas ("amanhã", "sexta") partem da data atual.
- Omita "priority" quando não for mencionada.
%s
Mensagem: %s`

func buildPrompt(in Input) string {
	extra := ""
	if in.Context != nil {
		if b, err := json.Marshal(in.Context); err == nil {
			extra = "\nContexto do workspace (membros e tarefas recentes):\n" + string(b) + "\n"
		}
	}
	return fmt.Sprintf(quickAddPrompt,
		in.Now.Format("2006-01-02T15:04:05"), in.Now.Weekday(), extra, in.Message)
}

func (f *QuickAddFlow) Extract(ctx context.Context, in Input) ([]models.ExtractedTask, error) {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, f.llm, buildPrompt(in), llms.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("erro ao chamar o modelo: %w", err)
	}
	return ParseTasks(out, in.Now.Location())
}

type rawTask struct {
	Title    string `json:"title"`
	DueDate  string `json:"due_date"`
	Priority string `json:"priority"`
}

var dueLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTasks aceita a lista pura, a lista dentro de bloco de código ou um
// objeto {"tasks": [...]}. Tarefas sem título são descartadas.
func ParseTasks(content string, loc *time.Location) ([]models.ExtractedTask, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw []rawTask
	if start, end := strings.Index(content, "["), strings.LastIndex(content, "]"); start >= 0 && end > start {
		if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
			raw = nil
		}
	}
	if raw == nil {
		var wrapped struct {
			Tasks []rawTask `json:"tasks"`
		}
		if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
			return nil, fmt.Errorf("resposta do modelo não é JSON válido: %w", err)
		}
		raw = wrapped.Tasks
	}

	if loc == nil {
		loc = time.Local
	}
	tasks := make([]models.ExtractedTask, 0, len(raw))
	for _, r := range raw {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			continue
		}
		task := models.ExtractedTask{Title: title, Priority: NormalizePriority(r.Priority)}
		if due, ok := parseDue(r.DueDate, loc); ok {
			task.DueDate = &due
		}
		tasks = append(tasks, task)
	}
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	return tasks, nil
}

func parseDue(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dueLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizePriority aceita os nomes em inglês e em português.
func NormalizePriority(s string) models.Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "urgent", "urgente":
		return models.PriorityUrgent
	case "high", "alta":
		return models.PriorityHigh
	case "medium", "média", "media":
		return models.PriorityMedium
	case "low", "baixa":
		return models.PriorityLow
	}
	return ""
}
