// Package board mantém no cliente uma cópia local do quadro de tarefas e
// reconcilia movimentos de drag-and-drop com a API de forma otimista.
package board

import (
	"sync"

	"symples/models"
)

// Snapshot é uma cópia profunda do espelho em um instante.
type Snapshot []models.Task

// Mirror é a cópia local da coleção do servidor. A ordem do slice é a ordem
// de exibição usada para desempate de posições iguais.
type Mirror struct {
	mu    sync.RWMutex
	tasks []models.Task
}

func NewMirror(tasks []models.Task) *Mirror {
	return &Mirror{tasks: cloneAll(tasks)}
}

func (m *Mirror) Tasks() []models.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneAll(m.tasks)
}

func (m *Mirror) Get(id string) (models.Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return models.Task{}, false
}

func (m *Mirror) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot(cloneAll(m.tasks))
}

// Restore substitui todo o espelho pelo snapshot.
func (m *Mirror) Restore(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = cloneAll(s)
}

// Replace carrega uma nova versão da coleção vinda do servidor.
func (m *Mirror) Replace(tasks []models.Task) {
	m.Restore(Snapshot(tasks))
}

// Put substitui a tarefa com o mesmo ID, ou a anexa se não existir.
func (m *Mirror) Put(t models.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(t)
}

func (m *Mirror) put(t models.Task) {
	for i := range m.tasks {
		if m.tasks[i].ID == t.ID {
			m.tasks[i] = t.Clone()
			return
		}
	}
	m.tasks = append(m.tasks, t.Clone())
}

// applyMoves aplica as movimentações numa única atualização.
func (m *Mirror) applyMoves(moves []idMove) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mv := range moves {
		for i := range m.tasks {
			if m.tasks[i].ID == mv.ID {
				m.tasks[i] = mv.Move.ApplyTo(m.tasks[i])
				break
			}
		}
	}
}

func cloneAll(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
