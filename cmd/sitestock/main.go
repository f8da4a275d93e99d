package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sitestock/internal"
	"sitestock/internal/api"
	"sitestock/internal/catalog"
	"sitestock/internal/config"
	"sitestock/internal/export"
	"sitestock/internal/filter"
	"sitestock/internal/importer"
	"sitestock/internal/inspect"
	"sitestock/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	client := api.NewClient(cfg)
	cache := catalog.NewCache(db, client, cfg)
	ctx := context.Background()

	cmd := os.Args[1]
	switch cmd {
	case "catalog:sync":
		materials, err := cache.Invalidate(ctx)
		must(err)
		categories, err := cache.Categories(ctx)
		must(err)
		constructions, err := cache.Constructions(ctx)
		must(err)
		fmt.Printf("catalog sync complete: materials=%d categories=%d constructions=%d\n",
			len(materials), len(categories), len(constructions))
	case "materials:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		search := fs.String("search", "", "partial name filter")
		category := fs.String("category", "", "comma-separated category ids")
		reload := fs.Bool("reload", false, "drop the cache and refetch first")
		_ = fs.Parse(os.Args[2:])

		engine := filter.NewEngine(cache)
		if *reload {
			must(engine.Reload(ctx))
		} else {
			materials, err := cache.Materials(ctx)
			must(err)
			engine.SetItems(materials)
		}
		engine.SetSearchQuery(*search)
		for _, id := range strings.Split(*category, ",") {
			engine.ToggleCategory(strings.TrimSpace(id))
		}

		items := engine.FilteredItems()
		for _, m := range items {
			fmt.Printf("%s\t%s\t%s\t%s\n", m.MaterialID, m.Name, m.UnitName, m.CategoryName)
		}
		fmt.Printf("%d materials\n", len(items))
	case "constructions:list":
		constructions, err := cache.Constructions(ctx)
		must(err)
		if len(constructions) == 0 {
			must(cache.Refresh(ctx))
			constructions, err = cache.Constructions(ctx)
			must(err)
		}
		for _, c := range constructions {
			fmt.Printf("%s\t%s\n", c.ID, c.Name)
		}
	case "import:analyze":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		construction := fs.String("construction", "", "construction id")
		file := fs.String("file", "", "delivery note (pdf, png or jpeg)")
		out := fs.String("out", "", "review xlsx path (optional)")
		commit := fs.Bool("commit", false, "commit resolvable entries")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*construction) == "" || strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--construction and --file are required"))
		}

		content, err := os.ReadFile(*file)
		must(err)
		must(inspect.CheckDeliveryNote(*file, content))

		ctrl := newController(cfg, client, *construction)
		ctrl.SelectFile(filepath.Base(*file), content)
		must(ctrl.ProcessFile(ctx))

		state := ctrl.Snapshot()
		printReview(state.Parsed)
		finishImport(ctx, db, cfg, ctrl, *construction, "upload", *out, *commit)
	case "import:manual":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		construction := fs.String("construction", "", "construction id")
		file := fs.String("file", "", "material table (xlsx or html)")
		out := fs.String("out", "", "review xlsx path (optional)")
		commit := fs.Bool("commit", false, "commit resolvable entries")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*construction) == "" || strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--construction and --file are required"))
		}

		rows, err := importer.ReadManualRowsFile(*file)
		must(err)
		if len(rows) == 0 {
			must(fmt.Errorf("no rows found in %s", filepath.Base(*file)))
		}

		ctrl := newController(cfg, client, *construction)
		ctrl.StageManualRows(rows)
		ctrl.SubmitManual()

		state := ctrl.Snapshot()
		if len(state.Parsed) == 0 {
			must(fmt.Errorf("no valid rows in %s (name, quantity, unit and category are required)", filepath.Base(*file)))
		}
		fmt.Printf("staged %d of %d rows\n", len(state.Parsed), len(rows))

		// Manual rows start unresolved; try to resolve each by name so a
		// commit in the same invocation is possible.
		resolveByName(ctx, ctrl, client, state.Parsed)

		state = ctrl.Snapshot()
		printReview(state.Parsed)
		finishImport(ctx, db, cfg, ctrl, *construction, "manual", *out, *commit)
	case "imports:history":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max sessions")
		session := fs.Int("session", 0, "show items of one session")
		_ = fs.Parse(os.Args[2:])

		if *session > 0 {
			items, err := db.ListCommittedItems(*session)
			must(err)
			for _, item := range items {
				fmt.Printf("%s\t%s\t%.3f\t(%s)\n", item.MaterialID, item.Name, item.QuantityValue, item.ExtractedName)
			}
			fmt.Printf("%d items\n", len(items))
			return
		}

		sessions, err := db.ListImportSessions(*limit)
		must(err)
		for _, s := range sessions {
			fmt.Printf("#%d\t%s\t%s\titems=%d\t%s\n", s.ID, s.ConstructionID, s.Source, s.ItemCount, s.CreatedAt)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func newController(cfg config.Config, client *api.Client, constructionID string) *importer.Controller {
	return importer.New(importer.Config{
		ConstructionID: constructionID,
		Analyzer:       client,
		Searcher:       client,
		Committer:      client,
		SettleDelay:    time.Duration(cfg.SearchDebounceMs) * time.Millisecond,
	})
}

// resolveByName assigns the best search hit to each unresolved entry. Entries
// without a hit stay unresolved and are skipped by the commit.
func resolveByName(ctx context.Context, ctrl *importer.Controller, client *api.Client, entries []internal.ParsedMaterial) {
	for _, entry := range entries {
		if entry.Resolvable() {
			continue
		}
		results, err := client.SearchMaterials(ctx, entry.ExtractedName)
		if err != nil || len(results) == 0 {
			continue
		}
		top := results[0]
		ctrl.ApplyCandidate(entry.ID, internal.MatchCandidate{
			MaterialID:   top.MaterialID,
			Name:         top.Name,
			UnitName:     top.UnitName,
			CategoryName: top.CategoryName,
		})
	}
}

func finishImport(ctx context.Context, db *storage.DB, cfg config.Config, ctrl *importer.Controller, constructionID, source, out string, commit bool) {
	state := ctrl.Snapshot()

	if strings.TrimSpace(out) != "" {
		path := out
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.OutputDir, path)
		}
		must(export.WriteReviewXLSX(state.Parsed, path))
		fmt.Printf("review written to %s\n", path)
	}

	if !commit {
		return
	}

	committed := make([]internal.CommittedItem, 0, len(state.Parsed))
	for _, entry := range state.Parsed {
		if !entry.Resolvable() {
			continue
		}
		committed = append(committed, internal.CommittedItem{
			MaterialID:    *entry.MaterialID,
			ExtractedName: entry.ExtractedName,
			Name:          entry.Name,
			QuantityValue: entry.Quantity,
		})
	}

	must(ctrl.AddToInventory(ctx))

	sessionID, err := db.RecordImportSession(constructionID, source, committed)
	must(err)
	fmt.Printf("committed %d items (session #%d)\n", len(committed), sessionID)
}

func printReview(entries []internal.ParsedMaterial) {
	for _, entry := range entries {
		status := "unresolved"
		id := "-"
		if entry.Resolvable() {
			status = "resolved"
			id = *entry.MaterialID
		}
		fmt.Printf("%-10s %-30s qty=%-10.3f unit=%-6s %s\n", status, truncate(entry.Name, 30), entry.Quantity, entry.Unit, id)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func usage() {
	fmt.Println("usage: sitestock <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:sync")
	fmt.Println("  materials:list [--search=...] [--category=id1,id2] [--reload]")
	fmt.Println("  constructions:list")
	fmt.Println("  import:analyze --construction=... --file=note.pdf [--out=review.xlsx] [--commit]")
	fmt.Println("  import:manual --construction=... --file=rows.xlsx [--out=review.xlsx] [--commit]")
	fmt.Println("  imports:history [--limit=20] [--session=1]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
