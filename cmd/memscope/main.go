// Command memscope renders the memory footprint of a sample document as
// an annotated tree. The document can be loaded from a JSON file; the
// rendered tree goes to stdout and, optionally, a summary report is
// appended to a lock-protected file so concurrent runs do not interleave.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/gofrs/flock"
	"github.com/tidwall/gjson"

	"github.com/genc-murat/memscope/config"
	"github.com/genc-murat/memscope/internal/util"
	"github.com/genc-murat/memscope/pkg/deque"
	"github.com/genc-murat/memscope/pkg/memsize"
	"github.com/genc-murat/memscope/pkg/memtree"
)

// Document is the demo shape the tool measures: a mix of plain fields,
// containers with formula-based sizes and a recent-items deque.
type Document struct {
	Title  string
	Rev    int64
	Tags   []string
	Attrs  map[string]string
	Recent *deque.Deque[string]
	Index  *redblacktree.Tree
}

func main() {
	configPath := flag.String("config", "", "path to yaml configuration")
	jsonPath := flag.String("json", "", "load the document from a JSON file")
	follow := flag.Bool("follow", false, "follow pointers")
	capacity := flag.Bool("capacity", false, "charge capacity instead of length")
	humanize := flag.Bool("humanize", false, "scale sizes to decimal units")
	percent := flag.Bool("percent", false, "show percentage of root")
	colorize := flag.Bool("color", false, "color sizes by magnitude")
	layout := flag.Bool("layout", false, "annotate physical padding")
	depth := flag.Int("depth", -1, "maximum expansion depth, negative for unlimited")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	applyFlagOverrides(cfg, *follow, *capacity, *humanize, *percent, *colorize, *layout, *depth)

	doc := sampleDocument()
	if *jsonPath != "" {
		loaded, err := documentFromJSON(*jsonPath)
		if err != nil {
			log.Fatal(err)
		}
		doc = loaded
	}

	if err := memtree.FprintDepth(os.Stdout, *doc, cfg.SizeFlags(), cfg.RenderFlags(), cfg.Output.MaxDepth); err != nil {
		log.Fatal(err)
	}

	if cfg.Report.Enabled {
		if err := writeReport(cfg, doc); err != nil {
			log.Fatal(err)
		}
		log.Printf("report appended to %s", cfg.Report.Path)
	}
}

func applyFlagOverrides(cfg *config.Config, follow, capacity, humanize, percent, colorize, layout bool, depth int) {
	if follow {
		cfg.Measure.FollowPointers = true
	}
	if capacity {
		cfg.Measure.Capacity = true
	}
	if humanize {
		cfg.Output.Humanize = true
	}
	if percent {
		cfg.Output.Percent = true
	}
	if colorize {
		cfg.Output.Color = true
	}
	if layout {
		cfg.Output.Layout = true
	}
	if depth >= 0 {
		cfg.Output.MaxDepth = depth
	}
}

// sampleDocument builds a document with every container kind the engine
// special-cases, so the default run shows the full surface.
func sampleDocument() *Document {
	recent := deque.New[string](8)
	recent.PushBack("created")
	recent.PushBack("indexed")

	index := redblacktree.NewWithStringComparator()
	for _, key := range []string{"alpha", "beta", "gamma"} {
		index.Put(key, len(key))
	}

	return &Document{
		Title:  "sample document",
		Rev:    3,
		Tags:   []string{"demo", "memscope"},
		Attrs:  map[string]string{"owner": "murat", "state": "active"},
		Recent: recent,
		Index:  index,
	}
}

// documentFromJSON fills a document from a JSON file. Only the fields
// the demo shape knows are picked out of the input.
func documentFromJSON(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading json file: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json in %s", path)
	}
	root := gjson.ParseBytes(data)

	doc := &Document{
		Title: root.Get("title").String(),
		Rev:   root.Get("rev").Int(),
		Attrs: map[string]string{},
	}
	for _, tag := range root.Get("tags").Array() {
		doc.Tags = append(doc.Tags, tag.String())
	}
	root.Get("attrs").ForEach(func(key, value gjson.Result) bool {
		doc.Attrs[key.String()] = value.String()
		return true
	})

	doc.Recent = deque.New[string](8)
	for _, event := range root.Get("recent").Array() {
		doc.Recent.PushBack(event.String())
	}

	doc.Index = redblacktree.NewWithStringComparator()
	root.Get("index").ForEach(func(key, value gjson.Result) bool {
		doc.Index.Put(key.String(), value.Value())
		return true
	})
	return doc, nil
}

// writeReport appends a summary to the report file under an exclusive
// file lock so concurrent runs do not interleave their entries.
func writeReport(cfg *config.Config, doc *Document) error {
	lock := flock.New(cfg.Report.Path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Report.LockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("error locking report file: %w", err)
	}
	if !locked {
		return fmt.Errorf("report file %s is locked by another run", cfg.Report.Path)
	}
	defer lock.Unlock()

	total := memsize.Of(*doc, cfg.SizeFlags())
	report := util.FormatReport(map[string]string{
		"time":  time.Now().UTC().Format(time.RFC3339),
		"root":  fmt.Sprintf("%T", *doc),
		"total": util.GroupDigits(uint64(total)) + " B",
	})

	f, err := os.OpenFile(cfg.Report.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("error opening report file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(report + "\n"); err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}
	return nil
}
