package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"symples/config"
	"symples/models"
	"symples/utilities"
)

func ConnectPostgres(cfg config.DatabaseConfig) (*sql.DB, error) {
	// Abre a conexão
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		utilities.LogError(err, "Erro ao abrir conexão com o banco de dados")
		return nil, err
	}

	// Testa a conexão
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		utilities.LogError(err, "Erro ao conectar ao banco de dados")
		db.Close()
		return nil, err
	}

	utilities.LogInfo("Conectado ao PostgreSQL com sucesso!")
	return db, nil
}

// ConnectRedis devolve nil, sem erro, quando url está vazia: o cache fica desligado.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		utilities.LogInfo("REDIS_URL não definida, cache de listagens desligado")
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URL inválida: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("conectar ao redis: %w", err)
	}
	utilities.LogInfo("Conectado ao Redis em %s", opts.Addr)
	return client, nil
}

// querier é satisfeito por *sql.DB e *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// mapError traduz erros do driver para os erros do domínio.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "foreign_key_violation":
			field := "workspace_id"
			if strings.Contains(pqErr.Constraint, "group") {
				field = "group_id"
			}
			return &models.ValidationError{Field: field, Message: "referência inexistente"}
		case "unique_violation":
			return &models.ValidationError{Field: pqErr.Column, Message: "registro duplicado"}
		case "invalid_text_representation":
			// id que não é uuid nunca existe
			return models.ErrNotFound
		case "check_violation":
			return &models.ValidationError{Message: pqErr.Message}
		}
	}
	return err
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		utilities.LogError(err, "Erro ao desfazer transação")
	}
}
