package database

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"symples/models"
	"symples/utilities"
)

// TaskCache envolve um TaskStore com cache Redis das listagens (uma entrada
// por escopo e aba). Qualquer escrita no escopo avança a geração dele, e as
// chaves de gerações antigas deixam de ser lidas. Uma listagem que começou
// antes da escrita só grava na geração antiga.
type TaskCache struct {
	TaskStore
	redis *redis.Client
	ttl   time.Duration
}

func NewTaskCache(base TaskStore, client *redis.Client, ttl time.Duration) *TaskCache {
	if base == nil {
		panic("database.NewTaskCache: base é nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &TaskCache{TaskStore: base, redis: client, ttl: ttl}
}

func (c *TaskCache) ListTasks(ctx context.Context, scope models.TaskScope, filter models.ListFilter) ([]models.Task, error) {
	gen, ok := c.generation(ctx, scope)
	if !ok {
		utilities.GetMetrics().CacheMissesTotal.WithLabelValues("tasks").Inc()
		return c.TaskStore.ListTasks(ctx, scope, filter)
	}
	key := listCacheKey(scope, gen, filter)
	if tasks, ok := c.load(ctx, key); ok {
		utilities.GetMetrics().CacheHitsTotal.WithLabelValues("tasks").Inc()
		return tasks, nil
	}
	utilities.GetMetrics().CacheMissesTotal.WithLabelValues("tasks").Inc()

	tasks, err := c.TaskStore.ListTasks(ctx, scope, filter)
	if err != nil {
		return nil, err
	}
	c.store(ctx, scope, key, tasks)
	return tasks, nil
}

// generation devolve a geração atual do escopo. false quando o redis não
// responde.
func (c *TaskCache) generation(ctx context.Context, scope models.TaskScope) (int64, bool) {
	if c.redis == nil {
		return 0, false
	}
	gen, err := c.redis.Get(ctx, generationKey(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		utilities.LogWarn("cache de tarefas indisponível: %v", err)
		return 0, false
	}
	return gen, true
}

func (c *TaskCache) CreateTask(ctx context.Context, scope models.TaskScope, createdBy string, in models.CreateTaskInput) (models.Task, error) {
	t, err := c.TaskStore.CreateTask(ctx, scope, createdBy, in)
	if err == nil {
		c.Evict(ctx, scope)
	}
	return t, err
}

func (c *TaskCache) UpdateTask(ctx context.Context, scope models.TaskScope, id string, patch models.TaskPatch) (models.Task, error) {
	t, err := c.TaskStore.UpdateTask(ctx, scope, id, patch)
	if err == nil {
		c.Evict(ctx, scope)
	}
	return t, err
}

func (c *TaskCache) MoveTask(ctx context.Context, scope models.TaskScope, id string, move models.TaskMove) (models.Task, error) {
	t, err := c.TaskStore.MoveTask(ctx, scope, id, move)
	if err == nil {
		c.Evict(ctx, scope)
	}
	return t, err
}

func (c *TaskCache) ApplyPositions(ctx context.Context, scope models.TaskScope, id string, move models.TaskMove, others map[string]float64) (models.Task, error) {
	t, err := c.TaskStore.ApplyPositions(ctx, scope, id, move, others)
	if err == nil {
		c.Evict(ctx, scope)
	}
	return t, err
}

func (c *TaskCache) DeleteTask(ctx context.Context, scope models.TaskScope, id string) error {
	err := c.TaskStore.DeleteTask(ctx, scope, id)
	if err == nil {
		c.Evict(ctx, scope)
	}
	return err
}

func (c *TaskCache) load(ctx context.Context, key string) ([]models.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// em erro do redis cai para o banco sem falhar
			utilities.LogWarn("cache de tarefas indisponível: %v", err)
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var tasks []models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return tasks, true
}

func (c *TaskCache) store(ctx context.Context, scope models.TaskScope, key string, tasks []models.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	index := indexCacheKey(scope)
	_, err = c.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, data, c.ttl)
		p.SAdd(ctx, index, key)
		p.Expire(ctx, index, c.ttl)
		return nil
	})
	if err != nil {
		utilities.LogWarn("falha ao gravar cache de tarefas: %v", err)
	}
}

// Evict avança a geração do escopo e apaga as listagens já indexadas.
func (c *TaskCache) Evict(ctx context.Context, scope models.TaskScope) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Incr(ctx, generationKey(scope)).Err(); err != nil {
		utilities.LogWarn("falha ao avançar geração do cache: %v", err)
	}
	index := indexCacheKey(scope)
	keys, err := c.redis.SMembers(ctx, index).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		utilities.LogWarn("falha ao ler índice do cache: %v", err)
		return
	}
	keys = append(keys, index)
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		utilities.LogWarn("falha ao limpar cache de tarefas: %v", err)
	}
}

func listCacheKey(scope models.TaskScope, gen int64, filter models.ListFilter) string {
	return "tasks:" + scope.Key() + ":" + strconv.FormatInt(gen, 10) + ":" + filter.Key()
}

func generationKey(scope models.TaskScope) string {
	return "tasks:" + scope.Key() + ":gen"
}

func indexCacheKey(scope models.TaskScope) string {
	return "tasks:" + scope.Key() + ":keys"
}
