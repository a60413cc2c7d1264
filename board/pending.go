package board

import (
	"context"

	"symples/models"
)

// PendingMutation é um movimento aplicado no espelho aguardando a resposta
// do servidor.
type PendingMutation struct {
	Seq        uint64
	TaskID     string
	Kind       MoveKind
	Renumbered bool

	snapshot Snapshot
	moves    []idMove
	done     chan struct{}

	// preenchidos sob Reconciler.mu; lidos livremente depois de done fechar
	status  State
	err     error
	results []models.Task
}

// Snapshot devolve o estado do espelho antes deste movimento.
func (p *PendingMutation) Snapshot() Snapshot {
	return Snapshot(cloneAll(p.snapshot))
}

// Positions devolve as posições gravadas por este movimento, por tarefa.
func (p *PendingMutation) Positions() map[string]float64 {
	out := make(map[string]float64, len(p.moves))
	for _, mv := range p.moves {
		out[mv.ID] = mv.Move.Position
	}
	return out
}

func (p *PendingMutation) Done() <-chan struct{} { return p.done }

// Wait espera a resposta do servidor e devolve o erro que causou o rollback,
// se houve.
func (p *PendingMutation) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err só é significativo depois de Done.
func (p *PendingMutation) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

func (p *PendingMutation) Committed() bool {
	select {
	case <-p.done:
		return p.status == StateCommitted
	default:
		return false
	}
}
