package main

import (
	"fmt"
	"log"
	"os"

	"github.com/alecthomas/kong"
	"sigs.k8s.io/yaml"

	"spicegarden-storefront/internal/catalog"
)

var cli struct {
	CSV        string   `arg:"" type:"existingfile" help:"Menu CSV export (id,name,description,price,category,image_url,available)."`
	Out        string   `short:"o" help:"Write the YAML menu here instead of stdout."`
	Name       string   `help:"Restaurant name." default:"Spice Garden Restaurant"`
	WhatsApp   string   `name:"whatsapp" help:"WhatsApp number for quick orders." default:"919354328799"`
	Categories []string `help:"Category order; defaults to the order categories first appear in the CSV."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Description(`Convert a menu CSV export into the storefront menu YAML`),
		kong.UsageOnError(),
	)
	logger := log.New(os.Stderr, "[menuimport] ", log.LstdFlags|log.LUTC)

	f, err := os.Open(cli.CSV)
	kctx.FatalIfErrorf(err)
	defer f.Close()

	entries, err := catalog.NewCSVImporter(f).Run()
	kctx.FatalIfErrorf(err, "import %s", cli.CSV)

	menu := catalog.MenuFile{
		Restaurant: catalog.Restaurant{Name: cli.Name, WhatsApp: cli.WhatsApp},
		Categories: cli.Categories,
		Items:      entries,
	}
	if len(menu.Categories) == 0 {
		menu.Categories = categoriesOf(entries)
	}

	kctx.FatalIfErrorf(menu.Validate(), "invalid menu")

	raw, err := yaml.Marshal(menu)
	kctx.FatalIfErrorf(err, "encode menu")

	if cli.Out == "" {
		fmt.Print(string(raw))
		return
	}
	if err := os.WriteFile(cli.Out, raw, 0o644); err != nil {
		logger.Fatalf("write %s: %v", cli.Out, err)
	}
	logger.Printf("wrote %d items to %s", len(entries), cli.Out)
}

func categoriesOf(entries []catalog.MenuEntry) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range entries {
		if e.Category != "" && !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	return out
}
