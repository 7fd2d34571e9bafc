// Package main provides a tool to seed the database with sample writing data.
//
// It creates a demo account with a few books and documents so the API and
// client engine have something to chew on during development.
//
// Usage:
//
//	DATA_PATH=~/Quill/data go run ./cmd/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/quillapp/quill/internal/auth"
	"github.com/quillapp/quill/internal/domain"
	"github.com/quillapp/quill/internal/store"
	"github.com/quillapp/quill/internal/words"
)

var (
	email    = flag.String("email", "demo@quill.local", "Email for the demo account")
	password = flag.String("password", "demo-password-123", "Password for the demo account")
)

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/Quill/data")
	}
	dbPath := filepath.Join(dataPath, "db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil, store.NoopEmitter{})
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user, err := s.CreateUser(ctx, *email, "Demo Writer", hash)
	if err != nil {
		log.Fatalf("Failed to create user (already seeded?): %v", err)
	}
	fmt.Printf("Created user %s (%s)\n", user.DisplayName, user.Email)

	books := []domain.BookDraft{
		{Title: "Field Notes", Description: "Observations from the field", ColorTheme: domain.ThemeGreen},
		{Title: "Story Drafts", Description: "Works in progress", ColorTheme: domain.ThemeBlue},
		{Title: "Journal", ColorTheme: domain.ThemePink},
	}

	documents := map[string][]domain.DocumentDraft{
		"Field Notes": {
			{Title: "Day One", Content: "<p>The harbor was quiet this morning. Three boats, no gulls.</p>"},
			{Title: "Day Two", Content: "<p>Rain since dawn. Stayed in and sorted photographs.</p>"},
		},
		"Story Drafts": {
			{Title: "The Lighthouse", Content: "<p>Nobody had lived there for <strong>forty years</strong>, which is why the light was such a surprise.</p>"},
		},
		"Journal": {
			{Title: "Untitled", Content: ""},
		},
	}

	for _, draft := range books {
		book, err := s.CreateBook(ctx, user.ID, draft)
		if err != nil {
			log.Fatalf("Failed to create book %q: %v", draft.Title, err)
		}
		fmt.Printf("Created book %q (%s)\n", book.Title, book.ID)

		for _, docDraft := range documents[book.Title] {
			docDraft.BookID = book.ID
			docDraft.WordCount = words.Count(docDraft.Content)
			doc, err := s.CreateDocument(ctx, user.ID, docDraft)
			if err != nil {
				log.Fatalf("Failed to create document %q: %v", docDraft.Title, err)
			}
			fmt.Printf("  Created document %q (%d words)\n", doc.Title, doc.WordCount)
		}
	}

	fmt.Println("Seed complete.")
}
