// Package ordering calcula posições fracionárias para reordenar tarefas sem
// renumerar as irmãs.
package ordering

import (
	"errors"
	"math"
	"sort"

	"symples/models"
)

const (
	// Step é a distância usada quando não há vizinho e na renumeração.
	Step = 1000.0
	// MinGap é o menor intervalo entre vizinhos aceito no caminho rápido.
	// Abaixo disso o grupo inteiro é renumerado.
	MinGap = 1e-6
)

// Between devolve a média entre os vizinhos. Sem vizinho anterior usa
// moved-Step, sem vizinho seguinte usa moved+Step.
func Between(prev, next *float64, moved float64) float64 {
	lo := moved - Step
	hi := moved + Step
	if prev != nil {
		lo = *prev
	}
	if next != nil {
		hi = *next
	}
	if prev != nil && next == nil && hi <= lo {
		hi = lo + Step
	}
	if next != nil && prev == nil && lo >= hi {
		lo = hi - Step
	}
	return (lo + hi) / 2
}

// Sort ordena por posição crescente. Empates mantêm a ordem de entrada.
func Sort(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Position < tasks[j].Position
	})
}

// Plan descreve as posições que mudam para realizar uma inserção.
type Plan struct {
	// Positions inclui apenas tarefas cuja posição muda.
	Positions  map[string]float64
	Renumbered bool
	// Order é a ordem final do grupo de destino.
	Order []string
}

// PlanMove calcula a nova posição de moved inserida em index no grupo de
// destino. siblings pode ou não conter moved; se contiver, ela é retirada
// antes (reordenação no mesmo grupo) e index vale para a lista sem ela.
//
// Caminho rápido: só moved muda. Se os vizinhos empatam ou o intervalo é
// menor que MinGap, o grupo é renumerado com intervalos de Step.
func PlanMove(siblings []models.Task, moved models.Task, index int) (Plan, error) {
	cur := append([]models.Task(nil), siblings...)
	Sort(cur)

	rest := make([]models.Task, 0, len(cur))
	curIdx := -1
	for i, t := range cur {
		if t.ID == moved.ID {
			curIdx = i
			moved = t
			continue
		}
		rest = append(rest, t)
	}

	if index < 0 {
		index = 0
	}
	if index > len(rest) {
		index = len(rest)
	}

	final := make([]models.Task, 0, len(rest)+1)
	final = append(final, rest[:index]...)
	final = append(final, moved)
	final = append(final, rest[index:]...)

	order := make([]string, len(final))
	for i, t := range final {
		order[i] = t.ID
	}

	if curIdx == index {
		return Plan{Positions: map[string]float64{}, Order: order}, nil
	}

	var prev, next *float64
	if index > 0 {
		p := final[index-1].Position
		prev = &p
	}
	if index+1 < len(final) {
		n := final[index+1].Position
		next = &n
	}

	if usable(prev, next) {
		pos := Between(prev, next, moved.Position)
		if strictlyBetween(pos, prev, next) {
			return Plan{Positions: map[string]float64{moved.ID: pos}, Order: order}, nil
		}
	}

	positions := map[string]float64{}
	renumbered := Renumber(final)
	for _, t := range final {
		if pos := renumbered[t.ID]; pos != t.Position || t.ID == moved.ID {
			positions[t.ID] = pos
		}
	}
	return Plan{Positions: positions, Renumbered: true, Order: order}, nil
}

// ForInsert devolve apenas a posição da tarefa movida. Retorna erro se a
// inserção exigir renumeração do grupo.
func ForInsert(siblings []models.Task, moved models.Task, index int) (float64, error) {
	plan, err := PlanMove(siblings, moved, index)
	if err != nil {
		return 0, err
	}
	if plan.Renumbered {
		return 0, errors.New("intervalo esgotado, o grupo precisa ser renumerado")
	}
	if pos, ok := plan.Positions[moved.ID]; ok {
		return pos, nil
	}
	return moved.Position, nil
}

// Renumber atribui (i+1)*Step na ordem recebida.
func Renumber(tasks []models.Task) map[string]float64 {
	out := make(map[string]float64, len(tasks))
	for i, t := range tasks {
		out[t.ID] = float64(i+1) * Step
	}
	return out
}

// NextPosition devolve a posição para anexar ao fim de uma coleção.
func NextPosition(tasks []models.Task) float64 {
	if len(tasks) == 0 {
		return Step
	}
	max := math.Inf(-1)
	for _, t := range tasks {
		if t.Position > max {
			max = t.Position
		}
	}
	return AfterMax(max)
}

// AfterMax devolve o próximo múltiplo de Step acima de max.
func AfterMax(max float64) float64 {
	return math.Floor(max/Step)*Step + Step
}

func usable(prev, next *float64) bool {
	if prev != nil && next != nil {
		return *next-*prev >= MinGap
	}
	return true
}

func strictlyBetween(pos float64, prev, next *float64) bool {
	if math.IsNaN(pos) || math.IsInf(pos, 0) {
		return false
	}
	if prev != nil && !(pos > *prev) {
		return false
	}
	if next != nil && !(pos < *next) {
		return false
	}
	return true
}
