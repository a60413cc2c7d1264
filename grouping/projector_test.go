package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symples/models"
)

func sp(s string) *string { return &s }

func keys(bs []Bucket) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Key
	}
	return out
}

func taskIDs(ts []models.Task) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func find(bs []Bucket, key string) Bucket {
	for _, b := range bs {
		if b.Key == key {
			return b
		}
	}
	return Bucket{}
}

func TestProjectByStatusOrdersByPosition(t *testing.T) {
	tasks := []models.Task{
		{ID: "c", Status: models.StatusTodo, Position: 3000},
		{ID: "a", Status: models.StatusTodo, Position: 1000},
		{ID: "d", Status: models.StatusDone, Position: 1},
		{ID: "b", Status: models.StatusTodo, Position: 2000},
	}
	buckets := Project(tasks, ByStatus, Options{})
	assert.Equal(t, []string{"todo", "in_progress", "done", "archived"}, keys(buckets))
	assert.Equal(t, []string{"a", "b", "c"}, taskIDs(find(buckets, "todo").Tasks))
	assert.Equal(t, "A Fazer", buckets[0].Label)
	assert.NotNil(t, find(buckets, "in_progress").Tasks)
	assert.Empty(t, find(buckets, "in_progress").Tasks)
}

func TestProjectByStatusFallbackBucket(t *testing.T) {
	tasks := []models.Task{{ID: "x", Status: "blocked"}, {ID: "y"}}
	buckets := Project(tasks, ByStatus, Options{})
	require.Equal(t, NoStatusKey, buckets[0].Key)
	assert.Equal(t, "Sem Status", buckets[0].Label)
	assert.Equal(t, []string{"x", "y"}, taskIDs(buckets[0].Tasks))
}

func TestProjectByPriorityUnsetFallsIntoMedia(t *testing.T) {
	tasks := []models.Task{
		{ID: "u", Priority: ""},
		{ID: "h", Priority: models.PriorityHigh},
		{ID: "m", Priority: models.PriorityMedium, Position: -1},
	}
	buckets := Project(tasks, ByPriority, Options{})
	assert.Equal(t, []string{"urgent", "high", "medium", "low"}, keys(buckets))
	medium := find(buckets, "medium")
	assert.Equal(t, "Média", medium.Label)
	assert.Equal(t, []string{"m", "u"}, taskIDs(medium.Tasks))
}

func TestProjectByGroup(t *testing.T) {
	groups := []models.TaskGroup{
		{ID: "g2", Name: "Financeiro", Position: 2},
		{ID: "g1", Name: "Vendas", Position: 1},
	}
	tasks := []models.Task{
		{ID: "a", GroupID: sp("g2")},
		{ID: "b"},
		{ID: "c", GroupID: sp("deleted-group")},
		{ID: "d", GroupID: sp("g1")},
	}
	buckets := Project(tasks, ByGroup, Options{Groups: groups})
	assert.Equal(t, []string{"inbox", "g1", "g2"}, keys(buckets))
	assert.Equal(t, "Inbox", buckets[0].Label)
	assert.ElementsMatch(t, []string{"b", "c"}, taskIDs(buckets[0].Tasks))

	// sem a lista de grupos cada group_id vira uma coluna
	buckets = Project(tasks, ByGroup, Options{})
	assert.Equal(t, []string{"inbox", "g2", "deleted-group", "g1"}, keys(buckets))
}

func TestProjectByAssignee(t *testing.T) {
	members := []models.WorkspaceMember{{UserID: "u1", DisplayName: "Ana"}}
	tasks := []models.Task{{ID: "a", AssigneeID: sp("u1")}, {ID: "b"}, {ID: "c", AssigneeID: sp("u9")}}
	buckets := Project(tasks, ByAssignee, Options{Members: members})
	assert.Equal(t, []string{"unassigned", "u1", "u9"}, keys(buckets))
	assert.Equal(t, "Sem responsável", buckets[0].Label)
	assert.Equal(t, "Ana", buckets[1].Label)
}

func TestProjectDefaultSingleBucket(t *testing.T) {
	tasks := []models.Task{{ID: "b", Position: 2}, {ID: "a", Position: 1}}
	buckets := Project(tasks, ByNone, Options{})
	require.Len(t, buckets, 1)
	assert.Equal(t, []string{"a", "b"}, taskIDs(buckets[0].Tasks))
}

func TestProjectIsDeterministic(t *testing.T) {
	tasks := []models.Task{
		{ID: "a", Status: models.StatusTodo, Position: 5},
		{ID: "b", Status: models.StatusTodo, Position: 5},
		{ID: "c", Status: models.StatusDone, Position: 1},
	}
	first := Project(tasks, ByStatus, Options{})
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Project(tasks, ByStatus, Options{}))
	}
	assert.Equal(t, []string{"a", "b"}, taskIDs(find(first, "todo").Tasks))
}

func TestApplyStatusMutatesOnlyStatus(t *testing.T) {
	task := models.Task{ID: "a", Title: "x", Status: models.StatusTodo, Priority: models.PriorityLow, Position: 10, GroupID: sp("g")}
	moved, err := Apply(task, ByStatus, "done")
	require.NoError(t, err)

	want := task.Clone()
	want.Status = models.StatusDone
	assert.Equal(t, want, moved)

	_, err = Apply(task, ByStatus, NoStatusKey)
	assert.Error(t, err)
}

func TestApplyInboxClearsGroup(t *testing.T) {
	task := models.Task{ID: "a", GroupID: sp("g1")}
	moved, err := Apply(task, ByGroup, InboxKey)
	require.NoError(t, err)
	assert.Nil(t, moved.GroupID)

	moved, err = Apply(task, ByGroup, "g2")
	require.NoError(t, err)
	assert.Equal(t, "g2", *moved.GroupID)
	assert.Equal(t, "g1", *task.GroupID)
}

func TestApplyPriorityAndAssignee(t *testing.T) {
	moved, err := Apply(models.Task{ID: "a"}, ByPriority, "urgent")
	require.NoError(t, err)
	assert.Equal(t, models.PriorityUrgent, moved.Priority)

	_, err = Apply(models.Task{ID: "a"}, ByPriority, "")
	assert.Error(t, err)

	moved, err = Apply(models.Task{ID: "a", AssigneeID: sp("u1")}, ByAssignee, UnassignedKey)
	require.NoError(t, err)
	assert.Nil(t, moved.AssigneeID)
}

func TestParseGroupBy(t *testing.T) {
	g, err := ParseGroupBy("priority")
	require.NoError(t, err)
	assert.Equal(t, ByPriority, g)
	_, err = ParseGroupBy("color")
	assert.Error(t, err)
}

func TestColumn(t *testing.T) {
	tasks := []models.Task{
		{ID: "a", Status: models.StatusDone, Position: 2},
		{ID: "b", Status: models.StatusTodo},
		{ID: "c", Status: models.StatusDone, Position: 1},
	}
	assert.Equal(t, []string{"c", "a"}, taskIDs(Column(tasks, ByStatus, "done", Options{})))
}
