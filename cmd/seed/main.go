package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"

	"dossier/internal/config"
	services "dossier/internal/domain/services"
	docstoreSvc "dossier/internal/domain/services/docstore"
	"dossier/internal/repository/postgres"
	postgresDocstore "dossier/internal/repository/postgres/docstore"
	serviceAudit "dossier/internal/service/audit"
	serviceDocstore "dossier/internal/service/docstore"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed documents")
	clearData := flag.Bool("clear-data", false, "Clear all seeded data (keep schema)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	if *clearData {
		log.Println("Clearing seeded data...")
		if err := clearAllData(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("Data cleared")
		return
	}

	// Create repositories and services
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	projectRepo := postgresDocstore.NewProjectRepository(repoConfig)
	docRepo := postgresDocstore.NewDocumentRepository(repoConfig)
	versionRepo := postgresDocstore.NewVersionRepository(repoConfig)
	auditRepo := postgres.NewAuditRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	projectService := serviceDocstore.NewProjectService(projectRepo, logger)
	store := serviceDocstore.NewDocumentStore(docRepo, versionRepo, txManager, logger)
	auditor := serviceAudit.NewLogger(auditRepo, logger)

	// Seed a sample trial project with one protocol document
	ownerID := uuid.NewString()
	project, err := projectService.CreateProject(ctx, &services.CreateProjectRequest{
		OwnerID: ownerID,
		Name:    "ATX-842 Phase II Trial",
		Sponsor: "Aterica Bio",
	})
	if err != nil {
		log.Fatalf("Failed to create seed project: %v", err)
	}
	log.Printf("Created project %s (%s)", project.Name, project.ID)

	doc, err := store.CreateDocument(ctx, &docstoreSvc.CreateDocumentRequest{
		ProjectID: project.ID,
		UserID:    ownerID,
		Title:     "ATX-842 Clinical Study Protocol",
		Content:   seedProtocolContent(),
	})
	if err != nil {
		log.Fatalf("Failed to create seed document: %v", err)
	}
	auditor.LogDocumentCreated(ctx, doc.ID, &ownerID, doc.Title)
	log.Printf("Created document %s (ID: %s, version %d)", doc.Title, doc.ID, doc.Version)

	// Save a second version so the history view has a chain to show
	result, err := store.SaveFullContent(ctx, &docstoreSvc.SaveContentRequest{
		DocumentID:    doc.ID,
		UserID:        ownerID,
		Content:       seedProtocolContentRevised(),
		ChangeSummary: "Expanded eligibility criteria",
	})
	if err != nil {
		log.Fatalf("Failed to save revised content: %v", err)
	}
	auditor.LogContentSaved(ctx, doc.ID, &ownerID, result.VersionNumber, "Expanded eligibility criteria")
	log.Printf("Saved revision: version %d", result.VersionNumber)

	log.Println("Seeding complete")
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	// Enable UUID extension
	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\""); err != nil {
		return err
	}

	createProjects := `
		CREATE TABLE IF NOT EXISTS ` + tables.Projects + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			owner_id UUID NOT NULL,
			name TEXT NOT NULL,
			sponsor TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createProjects); err != nil {
		return err
	}

	createDocuments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			project_id UUID NOT NULL REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			version INTEGER NOT NULL DEFAULT 1,
			created_by UUID NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createDocuments); err != nil {
		return err
	}

	createVersions := `
		CREATE TABLE IF NOT EXISTS ` + tables.DocumentVersions + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			version_number INTEGER NOT NULL,
			content JSONB NOT NULL,
			is_current BOOLEAN NOT NULL DEFAULT FALSE,
			created_by UUID NOT NULL,
			change_summary TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(document_id, version_number)
		)
	`
	if _, err := pool.Exec(ctx, createVersions); err != nil {
		return err
	}

	createValidations := `
		CREATE TABLE IF NOT EXISTS ` + tables.Validations + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			validation_type TEXT NOT NULL,
			severity TEXT NOT NULL,
			status TEXT NOT NULL,
			message TEXT NOT NULL,
			sections TEXT[] NOT NULL DEFAULT '{}',
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createValidations); err != nil {
		return err
	}

	createAuditLog := `
		CREATE TABLE IF NOT EXISTS ` + tables.AuditLog + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			document_id UUID NOT NULL,
			action TEXT NOT NULL,
			diff_json JSONB NOT NULL DEFAULT '{}',
			actor_user_id UUID,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createAuditLog); err != nil {
		return err
	}

	// Exactly one current version per document, enforced at the storage layer
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `versions_current ON ` + tables.DocumentVersions + `(document_id) WHERE is_current`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_project_id ON ` + tables.Documents + `(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `versions_document_id ON ` + tables.DocumentVersions + `(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `validations_document_id ON ` + tables.Validations + `(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `audit_document_created ON ` + tables.AuditLog + `(document_id, created_at DESC)`,
	}
	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.AuditLog,
		tables.Validations,
		tables.DocumentVersions,
		tables.Documents,
		tables.Projects,
	}

	for _, table := range tableNames {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
		log.Printf("  dropped %s", table)
	}

	return nil
}

// clearAllData deletes all rows but keeps the schema
func clearAllData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.AuditLog,
		tables.Validations,
		tables.DocumentVersions,
		tables.Documents,
		tables.Projects,
	}

	for _, table := range tableNames {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	return nil
}

func seedProtocolContent() json.RawMessage {
	return mustBlocks(map[string]interface{}{
		"blocks": []interface{}{
			section("sec-synopsis", "Synopsis", []interface{}{
				paragraph("p-synopsis-1", "ATX-842 is an investigational oral kinase inhibitor evaluated for moderate plaque psoriasis. This Phase II study assesses efficacy and safety over 16 weeks."),
			}),
			section("sec-objectives", "Objectives", []interface{}{
				paragraph("p-objectives-1", "The primary objective is the proportion of participants achieving PASI 75 at week 16."),
			}),
			section("sec-eligibility", "Eligibility Criteria", []interface{}{
				paragraph("p-eligibility-1", "Adults aged 18 to 65 with a confirmed diagnosis for at least 6 months. Exclusion criteria: TBD."),
			}),
			section("sec-dosage", "Dosage and Administration", []interface{}{
				paragraph("p-dosage-1", "Participants receive ATX-842 30 mg once daily with food."),
			}),
		},
	})
}

func seedProtocolContentRevised() json.RawMessage {
	return mustBlocks(map[string]interface{}{
		"blocks": []interface{}{
			section("sec-synopsis", "Synopsis", []interface{}{
				paragraph("p-synopsis-1", "ATX-842 is an investigational oral kinase inhibitor evaluated for moderate plaque psoriasis. This Phase II study assesses efficacy and safety over 16 weeks."),
			}),
			section("sec-objectives", "Objectives", []interface{}{
				paragraph("p-objectives-1", "The primary objective is the proportion of participants achieving PASI 75 at week 16."),
			}),
			section("sec-eligibility", "Eligibility Criteria", []interface{}{
				paragraph("p-eligibility-1", "Adults aged 18 to 65 with a confirmed diagnosis for at least 6 months."),
				paragraph("p-eligibility-2", "Participants must have failed at least one prior topical therapy and must not have received systemic biologics within 12 weeks of screening."),
			}),
			section("sec-dosage", "Dosage and Administration", []interface{}{
				paragraph("p-dosage-1", "Participants receive ATX-842 30 mg once daily with food."),
			}),
			section("sec-safety", "Safety Monitoring", []interface{}{
				paragraph("p-safety-1", "Adverse events are collected at every visit and graded per CTCAE v5.0. Liver function panels are drawn at weeks 4, 8, and 16."),
			}),
			section("sec-stats", "Statistical Considerations", []interface{}{
				paragraph("p-stats-1", "A sample size of 120 participants provides 85% power to detect a 25-point difference in PASI 75 response versus placebo."),
			}),
		},
	})
}

func section(id, title string, children []interface{}) map[string]interface{} {
	return map[string]interface{}{
		"id":       id,
		"type":     "section",
		"text":     title,
		"children": children,
	}
}

func paragraph(id, text string) map[string]interface{} {
	return map[string]interface{}{
		"id":   id,
		"type": "paragraph",
		"text": text,
	}
}

func mustBlocks(v map[string]interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		log.Fatalf("Failed to marshal seed content: %v", err)
	}
	return data
}
