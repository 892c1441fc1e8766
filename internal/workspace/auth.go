package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/people/v1"
	"google.golang.org/api/tasks/v1"
)

// Scopes covers every office tool the assistant exposes.
var Scopes = []string{
	gmail.GmailSendScope,
	gmail.GmailReadonlyScope,
	calendar.CalendarScope,
	tasks.TasksScope,
	people.ContactsScope,
}

// OAuth2Credentials is the client section of a Google credentials file.
type OAuth2Credentials struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURIs []string `json:"redirect_uris"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
}

// GoogleCredentialsFile is credentials.json as downloaded from Google Cloud Console.
type GoogleCredentialsFile struct {
	Installed *OAuth2Credentials `json:"installed,omitempty"`
	Web       *OAuth2Credentials `json:"web,omitempty"`
}

// ParseCredentials accepts either the bare client object or the Cloud
// Console file with an "installed" or "web" section.
func ParseCredentials(data []byte) (*OAuth2Credentials, error) {
	var direct OAuth2Credentials
	if err := json.Unmarshal(data, &direct); err == nil {
		if direct.ClientID != "" && direct.ClientSecret != "" {
			return &direct, nil
		}
	}

	var file GoogleCredentialsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse credentials as Google format: %w", err)
	}
	if file.Installed != nil {
		return file.Installed, nil
	}
	if file.Web != nil {
		return file.Web, nil
	}
	return nil, fmt.Errorf("no valid credentials found in JSON - expected 'installed' or 'web' section")
}

func OAuthConfig(creds *OAuth2Credentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

// HTTPClient returns an authorized client. A cached token is used when it
// is still valid; otherwise the refresh token is exchanged and cached.
func HTTPClient(ctx context.Context, config *oauth2.Config, tokenFile, refreshToken string) (*http.Client, error) {
	if tokenFile == "" {
		tokenFile = DefaultTokenFile()
	}

	token, err := LoadToken(tokenFile)
	if err == nil && token.Valid() {
		log.Printf("✅ Using cached OAuth2 token")
		return config.Client(ctx, token), nil
	}

	if token == nil || token.RefreshToken == "" {
		if refreshToken == "" {
			return nil, fmt.Errorf("no usable token in %s and GOOGLE_REFRESH_TOKEN is empty; run google-auth-helper first", tokenFile)
		}
		token = &oauth2.Token{RefreshToken: refreshToken}
	}

	log.Printf("🔄 Refreshing OAuth2 token")
	fresh, err := config.TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if err := SaveToken(tokenFile, fresh); err != nil {
		log.Printf("⚠️ Warning: failed to save refreshed token: %v", err)
	}
	return config.Client(ctx, fresh), nil
}

func DefaultTokenFile() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "google-token.json"
	}
	return filepath.Join(homeDir, ".office-assistant", "google-token.json")
}

func LoadToken(filename string) (*oauth2.Token, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(file).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}

func SaveToken(filename string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o700); err != nil {
		return err
	}
	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	return json.NewEncoder(file).Encode(token)
}
