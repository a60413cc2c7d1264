package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"symples/ai_services"
	"symples/cache"
	"symples/config"
	"symples/database"
	"symples/firebase"
	"symples/flows"
	"symples/handlers"
	"symples/models"
	"symples/utilities"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Erro ao carregar configuração: %v", err)
	}
	utilities.InitLogger(cfg.LogLevel, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("Erro ao conectar ao banco de dados: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Erro ao criar o esquema: %v", err)
	}

	var tasks database.TaskStore = database.NewTaskRepository(db)
	rdb, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		// listagens continuam funcionando direto no banco
		utilities.LogError(err, "Redis indisponível, cache de listagens desligado")
	}
	if rdb != nil {
		defer rdb.Close()
		tasks = database.NewTaskCache(tasks, rdb, cfg.CacheTTL)
	}
	workspaces := database.NewWorkspaceRepository(db)

	app, err := firebase.Initialize(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Erro ao inicializar Firebase: %v", err)
	}
	authClient, err := firebase.AuthClient(ctx, app)
	if err != nil {
		log.Fatalf("%v", err)
	}

	var history ai_services.HistoryWriter
	fs, err := firebase.FirestoreClient(ctx, app)
	if err != nil {
		utilities.LogError(err, "Firestore indisponível, histórico de IA desligado")
	} else {
		defer fs.Close()
		history = firebase.NewAIHistoryStore(fs)
	}

	var extractor flows.Extractor
	if cfg.AIEnabled() {
		llm, err := flows.NewOpenAIModel(cfg.AIAPIKey, cfg.AIModel, cfg.AIBaseURL)
		if err != nil {
			utilities.LogError(err, "Modelo de IA indisponível, quick-add usará apenas heurísticas")
		} else {
			extractor = flows.NewQuickAddFlow(llm)
			utilities.LogInfo("Quick-add com modelo %s", cfg.AIModel)
		}
	}
	quickAdd := ai_services.NewQuickAddService(extractor, tasks, workspaces, history)

	api := handlers.NewAPI(tasks, workspaces, authClient, quickAdd,
		cache.New[string, []models.Task](cfg.CalendarCacheSize, cfg.CalendarCacheTTL))
	api.Ping = db.PingContext

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: NewRouter(api, cfg.CORSAllowedOrigins),
	}

	go func() {
		utilities.LogInfo("Servidor iniciado na porta %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Erro no servidor HTTP: %v", err)
		}
	}()

	<-ctx.Done()
	utilities.LogInfo("Encerrando servidor...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utilities.LogError(err, "Erro ao encerrar servidor")
	}
}
