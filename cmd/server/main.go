package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"praktikum_core/internal/api"
	"praktikum_core/internal/app/service"
	"praktikum_core/internal/app/worker"
	"praktikum_core/internal/common/security"
	"praktikum_core/internal/domain/repository"
	"praktikum_core/internal/judge"
	"praktikum_core/internal/platform/config"
	"praktikum_core/internal/platform/database"
	"praktikum_core/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	// 4. Initialize Redis
	queue.ConnectRedis()
	defer queue.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	problemRepo := repository.NewPgProblemRepository(database.DB)
	assignmentRepo := repository.NewPgAssignmentRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)
	judgeJobRepo := repository.NewPgJudgeJobRepository(database.DB)

	// 6. Judge client: base URL and timeout come from config, never read ad
	// hoc inside business logic.
	judgeClient := judge.NewClient(config.AppConfig.JudgeAPIURL, config.AppConfig.JudgeTimeout)

	// 7. Initialize Services
	authService := service.NewAuthService(userRepo)
	judgeJobService := service.NewJudgeJobService(judgeJobRepo, queue.RDB)
	problemService := service.NewProblemService(problemRepo, assignmentRepo, database.DB)
	submissionService := service.NewSubmissionService(submissionRepo, problemRepo, assignmentRepo, judgeJobService, judgeClient, database.DB)
	verdictService := service.NewVerdictService(submissionRepo, problemRepo, database.DB)
	statsService := service.NewStatsService(submissionRepo, problemRepo, assignmentRepo)

	// 8. Initialize Judge Worker (as goroutines)
	judgeWorker := worker.NewJudgeWorker(queue.RDB, judgeJobRepo, problemRepo, submissionRepo, verdictService, judgeClient)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go judgeWorker.Start(workerCtx)
	fmt.Println("Judge worker started.")

	// 9. Initialize Router & HTTP Server
	router := api.NewRouter(authService, problemService, submissionService, statsService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")
	workerCancel() // Signal worker to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server and worker stopped gracefully.")
}
