package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"deckserver/internal/domain"
	"deckserver/internal/middleware"
	"deckserver/internal/sqlinline"
)

// Seed tool untuk development: bikin satu project + dua input file, lalu
// cetak JWT supaya endpoint generate bisa langsung dicoba.
func main() {
	var (
		ownerFlag string
		nameFlag  string
	)

	flag.StringVar(&ownerFlag, "owner", "", "owner user ID (UUID, random when empty)")
	flag.StringVar(&nameFlag, "name", "Warung Kopi Nusantara", "project name to seed")
	flag.Parse()

	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		exitWithError(errors.New("JWT_SECRET is required"))
	}

	ownerID := uuid.New()
	if ownerFlag != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(ownerFlag))
		if err != nil {
			exitWithError(fmt.Errorf("invalid -owner: %w", err))
		}
		ownerID = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("connect database: %w", err))
	}
	defer pool.Close()

	projectID := uuid.New()
	_, err = pool.Exec(ctx, sqlinline.QInsertProject,
		projectID, ownerID, nameFlag,
		"Jaringan kedai kopi untuk pekerja urban",
		"F&B", "Investor tahap awal")
	if err != nil {
		exitWithError(fmt.Errorf("insert project: %w", err))
	}

	uploads := []struct {
		filename string
		key      string
	}{
		{"business-plan.md", "uploads/" + projectID.String() + "/business-plan.md"},
		{"financials.md", "uploads/" + projectID.String() + "/financials.md"},
	}
	uploadIDs := make([]uuid.UUID, 0, len(uploads))
	for _, u := range uploads {
		id := uuid.New()
		_, err = pool.Exec(ctx, sqlinline.QInsertUpload,
			id, projectID, ownerID, u.filename, u.key, string(domain.UploadStatusCompleted))
		if err != nil {
			exitWithError(fmt.Errorf("insert upload %s: %w", u.filename, err))
		}
		uploadIDs = append(uploadIDs, id)
	}

	token, err := middleware.SignJWT(secret, middleware.TokenClaims{
		Sub:    ownerID.String(),
		Locale: "id",
		Exp:    time.Now().Add(24 * time.Hour).Unix(),
		Issuer: "deckserver-seed",
	})
	if err != nil {
		exitWithError(fmt.Errorf("sign token: %w", err))
	}

	fmt.Println("owner_id:  ", ownerID)
	fmt.Println("project_id:", projectID)
	for i, id := range uploadIDs {
		fmt.Printf("file_%d:     %s\n", i+1, id)
	}
	fmt.Println("token:     ", token)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "seed:", err)
	os.Exit(1)
}
