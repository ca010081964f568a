// Copilot chat client CLI.
//
// A small command-line front end for the chat client, mainly useful for
// signing in and verifying the setup outside the host application.
//
//	--signin          Sign in to GitHub via the device flow
//	--signout         Remove stored credentials
//	--status          Show whether the session is authenticated
//	--models          List the selectable chat models
//	--prompt="..."    Send a one-shot chat prompt
//	--model="..."     Model for this prompt (overrides settings)
//	--system="..."    System prompt for this call
//	--config="..."    Path to the YAML settings file
//
// Environment variables (also read from a .env file if present):
//   - COPILOT_MODEL: selected chat model
//   - COPILOT_SYSTEM_PROMPT: default system prompt
//   - COPILOT_VAULT_PATH: credential file location
//   - EDITOR_VERSION, EDITOR_PLUGIN_VERSION: identifiers sent to the API
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/toadfans/obsidian-github-copilot/internal/api"
	"github.com/toadfans/obsidian-github-copilot/internal/auth"
	"github.com/toadfans/obsidian-github-copilot/internal/chat"
	"github.com/toadfans/obsidian-github-copilot/internal/config"
)

// loadEnvFile loads environment variables from a .env file if present,
// trying the current directory and then parent directories up to the root.
func loadEnvFile() {
	if err := godotenv.Load(); err == nil {
		return
	}

	workDir, err := os.Getwd()
	if err != nil {
		return
	}

	for dir := workDir; dir != "/"; dir = filepath.Dir(dir) {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err == nil {
				return
			}
		}
	}
}

func main() {
	loadEnvFile()

	signin := flag.Bool("signin", false, "Sign in to GitHub via the device flow")
	signout := flag.Bool("signout", false, "Remove stored credentials")
	status := flag.Bool("status", false, "Show whether the session is authenticated")
	listModels := flag.Bool("models", false, "List the selectable chat models")
	prompt := flag.String("prompt", "", "Send a one-shot chat prompt")
	model := flag.String("model", "", "Model for this prompt")
	system := flag.String("system", "", "System prompt for this call")
	configPath := flag.String("config", "", "Path to the YAML settings file")

	flag.Parse()

	settings, err := loadSettings(*configPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	vaultPath := settings.VaultPath
	if vaultPath == "" {
		vaultPath, err = auth.DefaultVaultPath()
		if err != nil {
			log.Fatalf("Failed to resolve credential file location: %v", err)
		}
	}

	apiClient := api.NewClient(api.Config{
		EditorVersion:       settings.EditorVersion,
		EditorPluginVersion: settings.EditorPluginVersion,
	})
	manager := auth.NewManager(auth.NewFileVault(vaultPath), apiClient)
	client := chat.NewClient(manager, apiClient, settings)

	ctx := context.Background()

	switch {
	case *signin:
		runSignin(ctx, apiClient, manager)
	case *signout:
		if err := manager.SignOut(ctx); err != nil {
			log.Fatalf("Failed to remove credentials: %v", err)
		}
		fmt.Println("Signed out")
	case *status:
		if client.IsAuthenticated(ctx) {
			fmt.Println("Authenticated")
		} else {
			fmt.Println("Not authenticated; run with --signin")
		}
	case *listModels:
		current := client.GetCurrentModel()
		for _, m := range client.GetAvailableModels() {
			marker := "  "
			if m.ID == current.ID {
				marker = "* "
			}
			fmt.Printf("%s%s (%s)\n", marker, m.Name, m.ID)
		}
	case *prompt != "":
		runPrompt(ctx, client, *prompt, *model, *system)
	default:
		flag.Usage()
	}
}

func loadSettings(path string) (config.Settings, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.FromEnv(), nil
}

func runSignin(ctx context.Context, apiClient *api.Client, manager *auth.Manager) {
	code, err := apiClient.RequestDeviceCode(ctx)
	if err != nil {
		log.Fatalf("Failed to start sign-in: %v", err)
	}

	fmt.Printf("First, copy your one-time code: %s\n", code.UserCode)
	fmt.Printf("Then open %s and enter it.\n", code.VerificationURI)
	fmt.Println("Waiting for confirmation...")

	token, err := apiClient.WaitForAccessToken(ctx, code)
	if err != nil {
		log.Fatalf("Sign-in failed: %v", err)
	}

	if err := manager.SignIn(ctx, token); err != nil {
		log.Fatalf("Failed to store credentials: %v", err)
	}
	log.Printf("Signed in; stored personal access token %s", api.MaskToken(token))
}

func runPrompt(ctx context.Context, client *chat.Client, prompt, model, system string) {
	resp, err := client.SendMessage(ctx, chat.CallOptions{
		Prompt:       prompt,
		Model:        model,
		SystemPrompt: system,
	})
	if err != nil {
		log.Fatalf("Chat call failed: %v", err)
	}

	fmt.Println(resp.Content)
	if resp.Usage != nil {
		log.Printf("model=%s id=%s tokens=%d (prompt %d, completion %d)",
			resp.Model, resp.ID, resp.Usage.TotalTokens, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}
}
