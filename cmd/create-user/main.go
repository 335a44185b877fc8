package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fairgo/ai-ivr/pkg/audit"
	"github.com/fairgo/ai-ivr/pkg/auth"
	"github.com/fairgo/ai-ivr/pkg/env"
	"github.com/fairgo/ai-ivr/pkg/logger"
	"github.com/fairgo/ai-ivr/pkg/mongo"
)

func main() {
	tenantID := flag.String("tenant", "", "tenant ID the user belongs to (required)")
	email := flag.String("email", "", "login email (required)")
	name := flag.String("name", "", "display name")
	role := flag.String("role", auth.RoleAdmin, "admin, operator or auditor")
	password := flag.String("password", os.Getenv("CREATE_USER_PASSWORD"), "initial password, defaults to $CREATE_USER_PASSWORD")
	flag.Parse()

	if *tenantID == "" || *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}
	if !auth.ValidRole(*role) {
		log.Fatalf("Unknown role %q", *role)
	}

	// Load environment variables
	cfg, err := env.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.LogLevel, cfg.AppEnv); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	mongoClient, err := mongo.NewClient(cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Printf("Failed to disconnect MongoDB: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := auth.NewUserStore(mongoClient)

	// Check if user already exists
	if _, err := users.FindByEmail(ctx, *email); err == nil {
		fmt.Printf("❌ User with email %s already exists!\n", auth.NormalizeEmail(*email))
		os.Exit(1)
	} else if !stderrors.Is(err, auth.ErrUserNotFound) {
		log.Fatalf("Failed to look up user: %v", err)
	}

	user, err := users.Create(ctx, *tenantID, *email, *name, *role, *password)
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	_ = audit.New(mongoClient).Log(ctx, audit.Entry{
		TenantID:     user.TenantID,
		UserID:       user.ID,
		Action:       audit.ActionCreateUser,
		ResourceType: "user",
		ResourceID:   user.ID,
		Metadata:     map[string]interface{}{"source": "cli", "role": user.Role},
	})

	fmt.Printf("✅ User created successfully!\n")
	fmt.Printf("   Tenant: %s\n", user.TenantID)
	fmt.Printf("   Email: %s\n", user.Email)
	fmt.Printf("   Role: %s\n", user.Role)
	fmt.Printf("   ID: %s\n", user.ID)
}
