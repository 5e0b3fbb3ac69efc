package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/beacon-gw/beacon/internal/cli"
	"github.com/beacon-gw/beacon/internal/store/model"
	"github.com/beacon-gw/beacon/internal/store/sqlite"
)

func main() {
	repo, err := sqlite.NewSQLiteStorage("beacon.db")
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	ctx := context.Background()

	rawKey := "bk-" + uuid.New().String()
	hash := sha256.Sum256([]byte(rawKey))

	key := &model.APIKey{
		ID:        uuid.New().String(),
		Name:      "Dev Key",
		KeyHash:   hex.EncodeToString(hash[:]),
		KeyPrefix: rawKey[:8],
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	if err := repo.APIKeys().Create(ctx, key); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s Successfully seeded database!\n", cli.CheckMark())
	cli.PrettyPrint(key)
	fmt.Printf("API Key: %s\n", rawKey)
	fmt.Printf("Use this key in your Authorization header: Bearer %s\n", rawKey)
}
