package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mbriand/linknest/cmd"
	"github.com/mbriand/linknest/internal/config"
	apperrors "github.com/mbriand/linknest/internal/errors"
	"github.com/mbriand/linknest/internal/repository"
	"github.com/mbriand/linknest/internal/services"
	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// StatsCmd représente la commande 'stats'
var StatsCmd = &cobra.Command{
	Use:   "stats [slug]",
	Short: "Get statistics for a short URL",
	Long:  `Get visit statistics for the provided slug.`,
	Args:  cobra.ExactArgs(1),
	Run:   runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
}

// runStats exécute la logique pour la commande stats
func runStats(cobraCmd *cobra.Command, args []string) {
	slug := args[0]

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

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("FATAL: Échec de l'obtention de la base de données SQL sous-jacente: %v", err)
	}
	defer sqlDB.Close()

	// Initialiser les repositories et services nécessaires
	linkRepo := repository.NewLinkRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	linkService := services.NewLinkService(linkRepo, visitRepo, services.NewBcryptHasher(), nil)

	// Appeler GetLinkStats pour récupérer le lien et ses statistiques.
	link, totalVisits, err := linkService.GetLinkStats(context.Background(), slug)
	if err != nil {
		if errors.Is(err, apperrors.ErrLinkNotFound) {
			fmt.Printf("Error: Slug '%s' not found\n", slug)
		} else {
			fmt.Printf("Error retrieving statistics: %v\n", err)
		}
		os.Exit(1)
	}

	// Afficher les résultats
	fmt.Printf("Statistiques pour le slug: %s\n", slug)
	fmt.Printf("URL longue: %s\n", link.OriginalURL)
	fmt.Printf("Total de clics: %d\n", link.ClickCount)
	fmt.Printf("Visites enregistrées: %d\n", totalVisits)
	fmt.Printf("Date de création: %s\n", link.CreatedAt.Format("2006-01-02 15:04:05"))
	if link.ExpiresAt != nil {
		fmt.Printf("Expire le: %s\n", link.ExpiresAt.Format(time.RFC3339))
		if link.IsExpired() {
			fmt.Println("Statut: EXPIRÉ")
		}
	}
}
