package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/yiblet/cliprecall/internal/clipboard"
	"github.com/yiblet/cliprecall/internal/clipboard/mockboard"
	"github.com/yiblet/cliprecall/internal/desktop"
	"github.com/yiblet/cliprecall/internal/history"
	"github.com/yiblet/cliprecall/internal/recall"
	"github.com/yiblet/cliprecall/internal/store/memstore"
)

func main() {
	fmt.Println("cliprecall Demo")

	// In-memory history and a fake clipboard, no desktop needed
	hist := history.New(memstore.NewMemoryStore(), history.WithMaxItems(10))
	defer hist.Close()
	board := mockboard.New()

	copies := []string{
		"Hello, World! This is the first thing we copied.",
		"package main\n\nimport \"fmt\"\n\nfunc main() {\n    fmt.Println(\"Hello, Go!\")\n}",
		"ssh deploy@prod-1.example.com",
		"diff --git a/main.go b/main.go",
		"SELECT * FROM users WHERE created_at > '2023-01-01' ORDER BY created_at DESC LIMIT 10;",
		"ssh deploy@staging.example.com",
		"Hello, World! This is the first thing we copied.",
	}

	fmt.Println("Copying:")
	for i, text := range copies {
		if err := hist.Accept(text); err != nil {
			fmt.Printf("%d. skipped (%v)\n", i+1, err)
			continue
		}
		hist.Capture(text)
		fmt.Printf("%d. %s\n", i+1, history.Title(text, 60))
	}

	fmt.Printf("\nHistory (%d, newest first):\n", hist.Len())
	for i, text := range hist.Snapshot() {
		fmt.Printf("%d. %s\n", i, history.Title(text, 60))
	}

	paster := desktop.NewPaster(desktop.Detect(), board, desktop.ExecRunner, false)
	session := recall.New(hist, desktop.Noop{}, paster, recall.WithSettleDelay(10*time.Millisecond))

	session.Open()
	session.SetQuery("SSH")
	fmt.Printf("\nQuery %q matches %d entries:\n", session.Query(), session.RowCount())
	for i := 0; i < session.RowCount(); i++ {
		start, end, _ := session.MatchSpan(i)
		text := session.RowText(i)
		fmt.Printf("%d. %s[%s]%s\n", i, text[:start], text[start:end], text[end:])
	}

	// Wraparound: moving up from the first row selects the last
	session.Move(-1)
	selected, err := session.Selected()
	if err != nil {
		log.Fatalf("Failed to select: %v", err)
	}
	fmt.Printf("\nSelected row %d: %s\n", session.Cursor(), selected)

	if _, ok := session.Commit(); !ok {
		log.Fatal("Nothing to commit")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := session.Wait(ctx); err != nil {
		log.Fatalf("Paste did not run: %v", err)
	}

	pasted, err := clipboard.ReadText(board)
	if err != nil {
		log.Fatalf("Failed to read clipboard: %v", err)
	}
	fmt.Printf("Clipboard now holds: %s\n", pasted)
	fmt.Printf("Session state: %s\n", session.State())
}
