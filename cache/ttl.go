// Package cache oferece um cache em memória com tamanho máximo e expiração,
// criado por escopo (sessão ou API) e injetado em quem o usa.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultSize = 10
	DefaultTTL  = 5 * time.Minute
)

// TTLCache é seguro para uso concorrente.
type TTLCache[K comparable, V any] struct {
	lru *expirable.LRU[K, V]
}

// New cria um cache com no máximo size entradas que expiram após ttl.
// Valores não positivos usam os padrões.
func New[K comparable, V any](size int, ttl time.Duration) *TTLCache[K, V] {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TTLCache[K, V]{lru: expirable.NewLRU[K, V](size, nil, ttl)}
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

// Add grava o valor e devolve true se uma entrada antiga foi despejada.
func (c *TTLCache[K, V]) Add(key K, value V) bool {
	return c.lru.Add(key, value)
}

func (c *TTLCache[K, V]) Remove(key K) {
	c.lru.Remove(key)
}

// RemoveFunc apaga as entradas cuja chave satisfaz match.
func (c *TTLCache[K, V]) RemoveFunc(match func(K) bool) int {
	n := 0
	for _, k := range c.lru.Keys() {
		if match(k) {
			c.lru.Remove(k)
			n++
		}
	}
	return n
}

func (c *TTLCache[K, V]) Purge() {
	c.lru.Purge()
}

func (c *TTLCache[K, V]) Len() int {
	return c.lru.Len()
}
