package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/auth"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/config"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/database"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"github.com/spf13/cobra"
	"gorm.io/gorm/clause"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo users and dossiers",
	Long: `Seed the database with demo users for each role and a few dossiers.
Useful for local development and manual testing. Seeding is idempotent:
existing rows with the same ID are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 连接数据库并迁移
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		defer func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				sqlDB.Close()
			}
		}()
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		now := time.Now()
		users := []*model.UserModel{
			{ID: "admin", Name: "Administrateur", Role: model.RoleAdmin, CreatedAt: now, UpdatedAt: now},
			{ID: "directeur", Name: "Directeur Général", Role: model.RoleDirecteur, CreatedAt: now, UpdatedAt: now},
			{ID: "manager-1", Name: "Chef de Service", Role: model.RoleManager, LoadMetric: 1200, CreatedAt: now, UpdatedAt: now},
			{ID: "manager-2", Name: "Chef de Projet", Role: model.RoleManager, LoadMetric: 600, CreatedAt: now, UpdatedAt: now},
			{ID: "employe-1", Name: "Agent Comptable", Role: model.RoleEmploye, LoadMetric: 300, CreatedAt: now, UpdatedAt: now},
			{ID: "employe-2", Name: "Agent Administratif", Role: model.RoleEmploye, LoadMetric: 900, CreatedAt: now, UpdatedAt: now},
		}
		for _, u := range users {
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(u).Error; err != nil {
				return fmt.Errorf("failed to seed user %s: %w", u.ID, err)
			}
		}

		dossiers := []*model.DossierModel{
			{ID: "dossier-factures", Name: "Factures fournisseurs 2026", Category: model.CategoryFacture, OwnerID: "employe-1", CreatedAt: now, UpdatedAt: now},
			{ID: "dossier-contrats", Name: "Contrats de prestation", Category: model.CategoryContrat, OwnerID: "manager-1", CreatedAt: now, UpdatedAt: now},
			{ID: "dossier-conges", Name: "Demandes de congé annuel", OwnerID: "employe-2", CreatedAt: now, UpdatedAt: now},
		}
		for _, d := range dossiers {
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(d).Error; err != nil {
				return fmt.Errorf("failed to seed dossier %s: %w", d.ID, err)
			}
		}

		log.Printf("Seeded %d users and %d dossiers", len(users), len(dossiers))

		// 3. 可选: 为演示用户签发令牌
		if printTokens, _ := cmd.Flags().GetBool("tokens"); printTokens && cfg.JWT.Secret != "" {
			validator := auth.NewTokenValidator(cfg.JWT.Secret, cfg.JWT.Issuer)
			for _, u := range users {
				token, err := validator.GenerateToken(u.ID, u.Name, u.Role, 24*time.Hour)
				if err != nil {
					return fmt.Errorf("failed to generate token for %s: %w", u.ID, err)
				}
				fmt.Printf("%s (%s):\n  %s\n", u.ID, u.Role, token)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("config", "", "Config file path")
	seedCmd.Flags().Bool("tokens", false, "Print demo JWT tokens for seeded users")
}
