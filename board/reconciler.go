package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"symples/grouping"
	"symples/models"
	"symples/ordering"
	"symples/utilities"
)

// RollbackMessage é exibida quando a movimentação não pôde ser gravada.
const RollbackMessage = "Não foi possível mover a tarefa. As alterações foram desfeitas."

const defaultPersistTimeout = 15 * time.Second

var ErrUnknownTask = errors.New("tarefa não está no quadro")

// Persister grava uma movimentação: nova posição e, opcionalmente, o novo
// valor do campo agrupado. Devolve a tarefa como ficou no servidor.
type Persister interface {
	MoveTask(ctx context.Context, taskID string, move models.TaskMove) (models.Task, error)
}

// Notifier recebe as mensagens de falha exibidas ao usuário.
type Notifier interface {
	Notify(message string, err error)
}

type NotifierFunc func(message string, err error)

func (f NotifierFunc) Notify(message string, err error) { f(message, err) }

type State int

const (
	StateIdle State = iota
	StateDragging
	StatePersisting
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateDragging:
		return "dragging"
	case StatePersisting:
		return "persisting"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled-back"
	default:
		return "idle"
	}
}

type MoveKind int

const (
	SameGroupReorder MoveKind = iota
	CrossGroupMove
)

// DropEvent descreve onde a tarefa foi solta: coluna de destino e índice na
// lista da coluna sem a própria tarefa.
type DropEvent struct {
	TaskID   string
	ToColumn string
	Index    int
}

type idMove struct {
	ID   string
	Move models.TaskMove
}

type Option func(*Reconciler)

func WithNotifier(n Notifier) Option { return func(r *Reconciler) { r.notifier = n } }

func WithGroupOptions(opts grouping.Options) Option { return func(r *Reconciler) { r.opts = opts } }

func WithPersistTimeout(d time.Duration) Option { return func(r *Reconciler) { r.timeout = d } }

// Reconciler aplica movimentos no espelho antes de gravá-los e desfaz tudo
// a partir do snapshot quando a gravação falha.
type Reconciler struct {
	mirror    *Mirror
	persister Persister
	notifier  Notifier
	mode      grouping.GroupBy
	opts      grouping.Options
	timeout   time.Duration

	mu      sync.Mutex
	seq     uint64
	journal []*PendingMutation // mutações posteriores ao snapshot pendente mais antigo
	latest  map[string]uint64
	states  map[string]State
	wg      sync.WaitGroup
}

func NewReconciler(mirror *Mirror, persister Persister, mode grouping.GroupBy, opts ...Option) *Reconciler {
	r := &Reconciler{
		mirror:    mirror,
		persister: persister,
		mode:      mode,
		timeout:   defaultPersistTimeout,
		latest:    map[string]uint64{},
		states:    map[string]State{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Reconciler) Mirror() *Mirror { return r.mirror }

func (r *Reconciler) Mode() grouping.GroupBy { return r.mode }

// Columns projeta o espelho atual nas colunas do modo ativo.
func (r *Reconciler) Columns() []grouping.Bucket {
	return grouping.Project(r.mirror.Tasks(), r.mode, r.opts)
}

func (r *Reconciler) State(taskID string) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[taskID]
}

// Begin marca o início do arraste de uma tarefa.
func (r *Reconciler) Begin(taskID string) error {
	if _, ok := r.mirror.Get(taskID); !ok {
		return ErrUnknownTask
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[taskID] = StateDragging
	return nil
}

// Cancel encerra um arraste sem soltura.
func (r *Reconciler) Cancel(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.states[taskID] == StateDragging {
		r.states[taskID] = StateIdle
	}
}

// Drop aplica o movimento no espelho e dispara a gravação em segundo plano.
// Devolve nil quando a soltura não muda nada.
func (r *Reconciler) Drop(ctx context.Context, ev DropEvent) (*PendingMutation, error) {
	r.mu.Lock()
	pm, err := r.prepare(ev)
	if err != nil || pm == nil {
		if r.states[ev.TaskID] == StateDragging {
			r.states[ev.TaskID] = StateIdle
		}
		r.mu.Unlock()
		return nil, err
	}
	r.mirror.applyMoves(pm.moves)
	r.journal = append(r.journal, pm)
	for _, mv := range pm.moves {
		r.latest[mv.ID] = pm.Seq
	}
	r.states[ev.TaskID] = StatePersisting
	r.wg.Add(1)
	r.mu.Unlock()

	utilities.LogDebug("board: movimento %d da tarefa %s para %q índice %d", pm.Seq, ev.TaskID, ev.ToColumn, ev.Index)
	go r.persist(context.WithoutCancel(ctx), pm)
	return pm, nil
}

// prepare calcula o movimento; chamado com r.mu travado.
func (r *Reconciler) prepare(ev DropEvent) (*PendingMutation, error) {
	task, ok := r.mirror.Get(ev.TaskID)
	if !ok {
		return nil, ErrUnknownTask
	}
	tasks := r.mirror.Tasks()
	fromKey := grouping.KeyFor(task, r.mode, r.opts)

	kind := SameGroupReorder
	var fields models.TaskMove
	if ev.ToColumn != fromKey {
		kind = CrossGroupMove
		f, err := grouping.MoveFields(r.mode, ev.ToColumn)
		if err != nil {
			return nil, err
		}
		fields = f
	}

	siblings := grouping.Column(tasks, r.mode, ev.ToColumn, r.opts)
	plan, err := ordering.PlanMove(siblings, task, ev.Index)
	if err != nil {
		return nil, err
	}
	if kind == SameGroupReorder && len(plan.Positions) == 0 {
		return nil, nil
	}

	movedPos := task.Position
	if p, ok := plan.Positions[task.ID]; ok {
		movedPos = p
	}
	fields.Position = movedPos
	moves := []idMove{{ID: task.ID, Move: fields}}
	if plan.Renumbered {
		for _, id := range plan.Order {
			if p, ok := plan.Positions[id]; ok && id != task.ID {
				moves = append(moves, idMove{ID: id, Move: models.TaskMove{Position: p}})
			}
		}
	}

	r.seq++
	return &PendingMutation{
		Seq:        r.seq,
		TaskID:     task.ID,
		Kind:       kind,
		Renumbered: plan.Renumbered,
		snapshot:   r.mirror.Snapshot(),
		moves:      moves,
		done:       make(chan struct{}),
		status:     StatePersisting,
	}, nil
}

func (r *Reconciler) persist(ctx context.Context, pm *PendingMutation) {
	defer r.wg.Done()
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	results := make([]models.Task, 0, len(pm.moves))
	var err error
	for _, mv := range pm.moves {
		var saved models.Task
		saved, err = r.persister.MoveTask(ctx, mv.ID, mv.Move)
		if err != nil {
			err = fmt.Errorf("gravar movimento da tarefa %s: %w", mv.ID, err)
			break
		}
		results = append(results, saved)
	}

	if err != nil {
		r.rollback(pm, err)
		return
	}
	r.commit(pm, results)
}

func (r *Reconciler) commit(pm *PendingMutation, results []models.Task) {
	r.mu.Lock()
	pm.status = StateCommitted
	pm.results = results
	for _, saved := range results {
		// uma resposta atrasada não sobrescreve um movimento mais novo da mesma tarefa
		if r.latest[saved.ID] == pm.Seq {
			r.mirror.Put(saved)
		}
	}
	if r.latest[pm.TaskID] == pm.Seq {
		r.states[pm.TaskID] = StateCommitted
	}
	r.trimJournal()
	r.mu.Unlock()

	close(pm.done)
}

func (r *Reconciler) rollback(pm *PendingMutation, cause error) {
	r.mu.Lock()
	pm.status = StateRolledBack
	pm.err = cause

	r.mirror.Restore(pm.snapshot)
	for _, later := range r.journal {
		if later.Seq <= pm.Seq {
			continue
		}
		switch later.status {
		case StatePersisting:
			later.snapshot = r.mirror.Snapshot()
			r.mirror.applyMoves(later.moves)
		case StateCommitted:
			for _, saved := range later.results {
				if r.latest[saved.ID] == later.Seq {
					r.mirror.Put(saved)
				}
			}
		}
	}
	for _, mv := range pm.moves {
		if r.latest[mv.ID] == pm.Seq {
			r.latest[mv.ID] = r.previousSeq(mv.ID, pm.Seq)
		}
	}
	if r.latest[pm.TaskID] <= pm.Seq {
		r.states[pm.TaskID] = StateRolledBack
	}
	r.trimJournal()
	r.mu.Unlock()

	utilities.GetMetrics().RollbacksTotal.Inc()
	utilities.LogError(cause, fmt.Sprintf("board: movimento %d da tarefa %s desfeito", pm.Seq, pm.TaskID))
	if r.notifier != nil {
		r.notifier.Notify(RollbackMessage, cause)
	}
	close(pm.done)
}

// previousSeq devolve o movimento válido mais recente de id anterior a seq.
func (r *Reconciler) previousSeq(id string, seq uint64) uint64 {
	var best uint64
	for _, j := range r.journal {
		if j.Seq >= seq || j.status == StateRolledBack {
			continue
		}
		for _, mv := range j.moves {
			if mv.ID == id && j.Seq > best {
				best = j.Seq
			}
		}
	}
	return best
}

// trimJournal descarta entradas que nenhum snapshot pendente precisa reaplicar.
func (r *Reconciler) trimJournal() {
	first := -1
	for i, j := range r.journal {
		if j.status == StatePersisting {
			first = i
			break
		}
	}
	if first < 0 {
		r.journal = nil
		return
	}
	r.journal = append([]*PendingMutation(nil), r.journal[first:]...)
}

// Refresh troca o espelho pela versão do servidor e reaplica os movimentos
// ainda pendentes por cima.
func (r *Reconciler) Refresh(tasks []models.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mirror.Replace(tasks)
	for _, j := range r.journal {
		if j.status == StatePersisting {
			j.snapshot = r.mirror.Snapshot()
			r.mirror.applyMoves(j.moves)
		}
	}
}

// Wait bloqueia até que todas as gravações em andamento terminem.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}
