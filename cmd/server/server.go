package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbriand/linknest/cmd"
	"github.com/mbriand/linknest/internal/api"
	"github.com/mbriand/linknest/internal/config"
	"github.com/mbriand/linknest/internal/geoip"
	"github.com/mbriand/linknest/internal/models"
	"github.com/mbriand/linknest/internal/monitor"
	"github.com/mbriand/linknest/internal/repository"
	"github.com/mbriand/linknest/internal/services"
	"github.com/mbriand/linknest/internal/workers"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// RunServerCmd représente la commande 'run-server' de Cobra.
// C'est le point d'entrée pour lancer le serveur de l'application.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Lance le serveur API de raccourcissement d'URLs et les processus de fond.",
	Long: `Cette commande initialise la base de données, configure les APIs,
démarre les workers asynchrones d'enregistrement des visites et le
moniteur d'URLs, puis lance le serveur HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Charger la configuration
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Échec du chargement de la configuration : %v", err)
		}

		// Initialiser la base de données
		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{TranslateError: true})
		if err != nil {
			log.Fatalf("Échec de la connexion à la base de données : %v", err)
		}

		// Migration automatique des modèles
		if err := db.AutoMigrate(&models.Link{}, &models.Visit{}); err != nil {
			log.Fatalf("Échec de la migration de la base de données : %v", err)
		}

		// Initialiser les repositories
		linkRepo := repository.NewLinkRepository(db)
		visitRepo := repository.NewVisitRepository(db)
		log.Println("Repositories initialisés.")

		// Résolveur de géolocalisation : MaxMind si configuré, sinon no-op.
		var geoResolver geoip.Resolver = geoip.NoopResolver{}
		if cfg.GeoIP.DatabasePath != "" {
			maxmind, err := geoip.NewMaxMindResolver(cfg.GeoIP.DatabasePath)
			if err != nil {
				log.Printf("Warning: GeoIP database unavailable (%v), country lookups disabled.", err)
			} else {
				defer maxmind.Close()
				geoResolver = maxmind
			}
		}

		// Channel des événements de visite et workers d'enregistrement.
		visitEvents := make(chan models.VisitEvent, cfg.Analytics.BufferSize)
		pool := workers.StartVisitWorkers(cfg.Analytics.WorkerCount, visitEvents, visitRepo, geoResolver)
		log.Printf("Channel d'événements de visite initialisé avec un buffer de %d. %d worker(s) démarré(s).",
			cfg.Analytics.BufferSize, cfg.Analytics.WorkerCount)

		// Initialiser les services métiers
		linkService := services.NewLinkService(linkRepo, visitRepo, services.NewBcryptHasher(), visitEvents)
		log.Println("Services métiers initialisés.")

		// Initialiser et lancer le moniteur d'URLs.
		monitorInterval := time.Duration(cfg.Monitor.IntervalMinutes) * time.Minute
		urlMonitor := monitor.NewUrlMonitor(linkRepo, monitorInterval)
		go urlMonitor.Start()
		log.Printf("Moniteur d'URLs démarré avec un intervalle de %v.", monitorInterval)

		// Configurer le routeur Gin et les handlers API.
		router := gin.Default()
		api.SetupRoutes(router, linkService, cfg.Server.BaseURL)
		log.Println("Routes API configurées.")

		// Créer le serveur HTTP Gin
		serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:    serverAddr,
			Handler: router,
		}

		// Démarrer le serveur Gin dans une goroutine pour ne pas bloquer.
		go func() {
			log.Printf("Démarrage du serveur sur %s", serverAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Échec du démarrage du serveur : %v", err)
			}
		}()

		// Gérer l'arrêt propre du serveur (graceful shutdown).
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		<-quit
		log.Println("Signal d'arrêt reçu. Arrêt du serveur...")

		// Arrêter le serveur HTTP avant de fermer le channel : plus
		// aucune résolution ne peut publier d'événement après Shutdown.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Échec de l'arrêt du serveur HTTP : %v", err)
		}

		// Drainer les visites en attente : fermer le channel puis attendre
		// que les workers terminent leurs écritures.
		close(visitEvents)
		pool.Wait()

		log.Println("Serveur arrêté proprement.")
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
