package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mbriand/linknest/cmd"
	"github.com/mbriand/linknest/internal/config"
	"github.com/mbriand/linknest/internal/repository"
	"github.com/mbriand/linknest/internal/services"
	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	longURLFlag   string
	slugFlag      string
	passwordFlag  string
	expiresFlag   string
	createdByFlag uint
)

// CreateCmd représente la commande 'create'
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Crée une URL courte à partir d'une URL longue.",
	Long: `Cette commande raccourcit une URL longue fournie et affiche le slug généré.
Le slug peut être choisi (--slug), protégé par mot de passe (--password)
et limité dans le temps (--expires, horodatage RFC 3339).

Exemple:
  linknest create --url="https://www.google.com/search?q=go+lang" --slug=promo1`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		var expiresAt *time.Time
		if expiresFlag != "" {
			t, err := time.Parse(time.RFC3339, expiresFlag)
			if err != nil {
				log.Fatalf("Invalid --expires value (expected RFC 3339): %v", err)
			}
			expiresAt = &t
		}

		// Charger la configuration
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{TranslateError: true})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
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

		// Appeler le LinkService pour créer le lien court.
		link, err := linkService.CreateLink(context.Background(), services.CreateLinkParams{
			OriginalURL:   longURLFlag,
			CandidateSlug: slugFlag,
			Password:      passwordFlag,
			ExpiresAt:     expiresAt,
			CreatedBy:     createdByFlag,
		})
		if err != nil {
			log.Fatalf("Failed to create short link: %v", err)
		}

		fullShortURL := fmt.Sprintf("%s/%s", cfg.Server.BaseURL, link.ShortSlug)
		fmt.Printf("URL courte créée avec succès:\n")
		fmt.Printf("Slug: %s\n", link.ShortSlug)
		fmt.Printf("URL complète: %s\n", fullShortURL)
		if expiresAt != nil {
			fmt.Printf("Expire le: %s\n", expiresAt.Format(time.RFC3339))
		}
	},
}

func init() {
	CreateCmd.Flags().StringVar(&longURLFlag, "url", "", "The long URL to shorten")
	CreateCmd.Flags().StringVar(&slugFlag, "slug", "", "Custom slug (3-20 characters, optional)")
	CreateCmd.Flags().StringVar(&passwordFlag, "password", "", "Password protecting the link (optional)")
	CreateCmd.Flags().StringVar(&expiresFlag, "expires", "", "Expiry timestamp, RFC 3339 (optional)")
	CreateCmd.Flags().UintVar(&createdByFlag, "created-by", 0, "Opaque user identifier of the creator")

	CreateCmd.MarkFlagRequired("url")

	cmd.RootCmd.AddCommand(CreateCmd)
}
