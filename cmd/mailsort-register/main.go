// mailsort-register stores a mailbox's OAuth token in the credential store,
// completing the registration step after an authorization flow has produced
// a token file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"golang.org/x/oauth2"

	"github.com/joshsymonds/mailsort/internal/config"
	"github.com/joshsymonds/mailsort/internal/credstore"
	"github.com/joshsymonds/mailsort/internal/runtime"
)

func main() {
	mailbox := flag.String("mailbox", "", "mailbox address to register")
	tokenFile := flag.String("token-file", "", "path to the OAuth token JSON for this mailbox")
	deactivate := flag.Bool("deactivate", false, "mark the mailbox inactive instead of registering")
	flag.Parse()

	if err := run(*mailbox, *tokenFile, *deactivate); err != nil {
		runtime.NewLogger(0, "text").Error("mailsort-register failed", "error", err)
		os.Exit(1)
	}
}

func run(mailbox, tokenFile string, deactivate bool) error {
	if mailbox == "" {
		return fmt.Errorf("-mailbox is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := credstore.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	if deactivate {
		if err := store.Deactivate(ctx, mailbox); err != nil {
			return err
		}
		fmt.Printf("deactivated %s\n", mailbox)
		return nil
	}

	if tokenFile == "" {
		return fmt.Errorf("-token-file is required")
	}
	b, err := os.ReadFile(tokenFile)
	if err != nil {
		return fmt.Errorf("read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return fmt.Errorf("decode token file: %w", err)
	}
	if err := store.PutToken(ctx, mailbox, &tok); err != nil {
		return err
	}
	fmt.Printf("registered %s\n", mailbox)
	return nil
}
