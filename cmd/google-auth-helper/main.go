package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"

	"office-assistant/internal/config"
	"office-assistant/internal/workspace"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: google-auth-helper <credentials.json>")
	}
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	cfg := config.NewWorkspace()

	credentialsData, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read credentials file: %v", err)
	}
	credentials, err := workspace.ParseCredentials(credentialsData)
	if err != nil {
		log.Fatalf("Failed to parse credentials: %v", err)
	}
	oauthConfig := workspace.OAuthConfig(credentials)

	authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)

	fmt.Printf("🔗 Google OAuth2 Authorization Helper\n")
	fmt.Printf("=====================================\n")
	fmt.Printf("Scopes: Gmail send, Calendar, Tasks, Contacts\n\n")
	fmt.Printf("1. Open this URL in your browser:\n")
	fmt.Printf("   %s\n\n", authURL)
	fmt.Printf("2. Authorize the application\n")
	fmt.Printf("3. Copy the authorization code and enter it below\n\n")
	fmt.Printf("📝 Enter the authorization code: ")

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		log.Fatalf("Failed to read authorization code: %v", err)
	}

	token, err := oauthConfig.Exchange(context.Background(), authCode)
	if err != nil {
		log.Fatalf("Failed to exchange code for token: %v", err)
	}

	tokenFile := cfg.TokenFile
	if tokenFile == "" {
		tokenFile = workspace.DefaultTokenFile()
	}
	if err := workspace.SaveToken(tokenFile, token); err != nil {
		log.Printf("⚠️ Failed to cache token in %s: %v", tokenFile, err)
	} else {
		fmt.Printf("\n💾 Token cached in %s\n", tokenFile)
	}

	fmt.Printf("\n✅ Successfully obtained tokens!\n")
	fmt.Printf("=====================================\n")
	fmt.Printf("Add these to your .env file:\n\n")
	fmt.Printf("GOOGLE_CREDENTIALS_JSON_PATH='%s'\n", os.Args[1])
	if token.RefreshToken != "" {
		fmt.Printf("GOOGLE_REFRESH_TOKEN='%s'\n", token.RefreshToken)
	}
	fmt.Printf("Expires: %v\n", token.Expiry)
}
