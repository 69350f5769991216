package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"wikitools/internal/errors"
	"wikitools/pkg/config"
	"wikitools/pkg/logging"
	"wikitools/pkg/pagelist"
	"wikitools/pkg/request"
	"wikitools/pkg/site"
	"wikitools/pkg/title"
	"wikitools/pkg/tools"
	"wikitools/pkg/version"
	"wikitools/pkg/wikidata"
)

// appEnv carries the shared dependencies every command needs. It is
// populated by the app's Before hook so the global --config flag is
// parsed first.
type appEnv struct {
	cfg    *config.Config
	client *request.Client
	ns     title.Source
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *appEnv) *cli.App {
	app := &cli.App{
		Name:    "wikitools",
		Usage:   "Query Wikimedia ecosystem tools and combine their page lists",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Config file path (YAML)"},
			&cli.StringFlag{Name: "format", Value: "json", Usage: "Output format"},
		},
		Before: func(c *cli.Context) error {
			if f := c.String("format"); f != "json" {
				return errors.NewValidation("unsupported output format: " + f)
			}
			if env.client != nil {
				// Already wired by the caller.
				return nil
			}
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			logging.Init(cfg.Log.Level)

			client := request.New(time.Duration(cfg.Request.Timeout))
			client.SetUserAgent(cfg.Request.UserAgent)

			env.cfg = cfg
			env.client = client
			env.ns = title.NewAPISource(client)
			return nil
		},
		Commands: []*cli.Command{
			petscanCmd(env),
			pagepileCmd(env),
			quarryCmd(env),
			completerCmd(env),
			duplicityCmd(env),
			missingTopicsCmd(env),
			aListBuildingToolCmd(env),
			listBuildingCmd(env),
			wikiNearbyCmd(env),
			xtoolsPagesCmd(env),
			searchCmd(env),
			grepCmd(env),
			sparqlRCCmd(env),
			quickStatementsCmd(env),
			pageviewsCmd(env),
			persondataCmd(env),
			subsetCmd(env),
			unionCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func petscanCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "petscan",
		Usage:     "Fetch the pages of a saved PetScan query",
		ArgsUsage: "<psid>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "param", Aliases: []string{"p"}, Usage: "Override query parameter key=value (repeatable)"},
		},
		Action: func(c *cli.Context) error {
			psid, err := uintArg(c, 0, "psid")
			if err != nil {
				return outputError(err)
			}

			ps := tools.NewPetScan(uint32(psid))
			for _, kv := range c.StringSlice("param") {
				key, value, found := strings.Cut(kv, "=")
				if !found {
					return outputError(errors.NewValidation("bad --param, want key=value: " + kv))
				}
				ps.Parameters.Set(key, value)
			}
			if err := tools.Run(c.Context, env.client, ps); err != nil {
				return outputError(err)
			}

			pl, err := ps.PageList()
			if err != nil {
				return outputError(err)
			}
			return outputPageList(c.Context, env, pl)
		},
	}
}

func pagepileCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "pagepile",
		Usage:     "Fetch the pages of a PagePile",
		ArgsUsage: "<pile-id>",
		Action: func(c *cli.Context) error {
			id, err := uintArg(c, 0, "pile-id")
			if err != nil {
				return outputError(err)
			}

			pp := tools.NewPagePile(uint32(id))
			if err := tools.Run(c.Context, env.client, pp); err != nil {
				return outputError(err)
			}

			s, err := pp.Site()
			if err != nil {
				return outputError(err)
			}
			f, err := env.ns.ForSite(c.Context, s)
			if err != nil {
				return outputError(err)
			}
			pl, err := pp.PageList(f)
			if err != nil {
				return outputError(err)
			}
			return outputPageList(c.Context, env, pl)
		},
	}
}

func quarryCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "quarry",
		Usage:     "Download the latest result set of a Quarry query",
		ArgsUsage: "<query-id>",
		Action: func(c *cli.Context) error {
			id, err := uintArg(c, 0, "query-id")
			if err != nil {
				return outputError(err)
			}

			q := tools.NewQuarry(id)
			if err := tools.Run(c.Context, env.client, q); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"columns": q.Columns, "rows": q.Rows})
		},
	}
}

func completerCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "completer",
		Usage: "Find articles on one Wikipedia missing on another",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Required: true, Usage: "Source language code"},
			&cli.StringFlag{Name: "to", Required: true, Usage: "Target language code"},
			&cli.StringFlag{Name: "category", Usage: "Filter by category (no namespace prefix)"},
			&cli.UintFlag{Name: "depth", Value: 0, Usage: "Category depth"},
			&cli.StringFlag{Name: "template", Usage: "Filter by template transclusion"},
			&cli.StringFlag{Name: "petscan", Usage: "Filter by PetScan PSID"},
			&cli.BoolFlag{Name: "ignore-cache", Usage: "Bypass the tool's cache"},
		},
		Action: func(c *cli.Context) error {
			comp := tools.NewCompleter(c.String("from"), c.String("to"))
			comp.IgnoreCache = c.Bool("ignore-cache")
			if cat := c.String("category"); cat != "" {
				comp.Filter(tools.CategoryFilter(cat, uint32(c.Uint("depth"))))
			}
			if tpl := c.String("template"); tpl != "" {
				comp.Filter(tools.TemplateFilter(tpl))
			}
			if psid := c.String("petscan"); psid != "" {
				comp.Filter(tools.PetScanFilter(psid))
			}

			if err := tools.Run(c.Context, env.client, comp); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"id": comp.ID, "results": comp.Results})
		},
	}
}

func duplicityCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "duplicity",
		Usage:     "List pages on a wiki that have no Wikidata item",
		ArgsUsage: "<wiki>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "wikis", Usage: "List the tracked wikis instead"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("wikis") {
				wikis, err := tools.DuplicityWikis(c.Context, env.client, "")
				if err != nil {
					return outputError(err)
				}
				return outputJSON(wikis)
			}

			s, err := siteArg(c, 0)
			if err != nil {
				return outputError(err)
			}
			d := tools.NewDuplicity(s)
			if err := tools.Run(c.Context, env.client, d); err != nil {
				return outputError(err)
			}
			return outputJSON(d.Results)
		},
	}
}

func missingTopicsCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "missing_topics",
		Usage:     "List red links for a category tree or a single article",
		ArgsUsage: "<wiki>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Usage: "Category to scan"},
			&cli.UintFlag{Name: "depth", Value: 0, Usage: "Category depth"},
			&cli.StringFlag{Name: "article", Usage: "Article to scan instead of a category"},
			&cli.UintFlag{Name: "occurs-more-than", Usage: "Keep only links wanted more often than this"},
			&cli.BoolFlag{Name: "no-template-links", Usage: "Ignore links coming from templates"},
		},
		Action: func(c *cli.Context) error {
			s, err := siteArg(c, 0)
			if err != nil {
				return outputError(err)
			}

			m := tools.NewMissingTopics(s)
			if cat := c.String("category"); cat != "" {
				m.WithCategory(cat, uint32(c.Uint("depth")))
			}
			if art := c.String("article"); art != "" {
				m.WithArticle(art)
			}
			if c.IsSet("occurs-more-than") {
				m.Limit(uint32(c.Uint("occurs-more-than")))
			}
			if c.IsSet("no-template-links") {
				m.NoTemplates(c.Bool("no-template-links"))
			}

			if err := tools.Run(c.Context, env.client, m); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"url": m.URLUsed, "results": m.Results})
		},
	}
}

func aListBuildingToolCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "alistbuildingtool",
		Usage:     "List pages on a wiki related to a Wikidata item",
		ArgsUsage: "<wiki> <qid>",
		Action: func(c *cli.Context) error {
			s, err := siteArg(c, 0)
			if err != nil {
				return outputError(err)
			}
			qid := c.Args().Get(1)
			if qid == "" {
				return outputError(errors.NewValidation("missing qid argument"))
			}

			a := tools.NewAListBuildingTool(s, qid)
			if err := tools.Run(c.Context, env.client, a); err != nil {
				return outputError(err)
			}
			return outputPageList(c.Context, env, a.PageList())
		},
	}
}

func listBuildingCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "listbuilding",
		Usage:     "List pages on a wiki related to a page",
		ArgsUsage: "<wiki> <title>",
		Action: func(c *cli.Context) error {
			s, err := siteArg(c, 0)
			if err != nil {
				return outputError(err)
			}
			t := c.Args().Get(1)
			if t == "" {
				return outputError(errors.NewValidation("missing title argument"))
			}

			l := tools.NewListBuilding(s, t)
			if err := tools.Run(c.Context, env.client, l); err != nil {
				return outputError(err)
			}
			return outputPageList(c.Context, env, l.PageList())
		},
	}
}

func wikiNearbyCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "wikinearby",
		Usage:     "List pages near a page or a \"lat, lon\" location",
		ArgsUsage: "<wiki> <query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "offset", Value: 0, Usage: "Result offset for paging"},
		},
		Action: func(c *cli.Context) error {
			s, err := siteArg(c, 0)
			if err != nil {
				return outputError(err)
			}
			query := c.Args().Get(1)
			if query == "" {
				return outputError(errors.NewValidation("missing query argument"))
			}

			wn := tools.NewWikiNearbyFromPage(s, query)
			wn.Offset = c.Int("offset")
			if err := tools.Run(c.Context, env.client, wn); err != nil {
				return outputError(err)
			}

			f, err := env.ns.ForSite(c.Context, s)
			if err != nil {
				return outputError(err)
			}
			return outputPageList(c.Context, env, wn.PageList(f))
		},
	}
}

func xtoolsPagesCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "xtools_pages",
		Usage:     "List the pages a user created on a wiki",
		ArgsUsage: "<wiki> <user>",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "namespace", Value: 0, Usage: "Namespace ID"},
			&cli.StringFlag{Name: "redirects", Value: "all", Usage: "noredirects|all|onlyredirects"},
			&cli.StringFlag{Name: "deleted", Value: "all", Usage: "all|live|deleted"},
			&cli.StringFlag{Name: "start", Usage: "Start date YYYY-MM-DD"},
			&cli.StringFlag{Name: "end", Usage: "End date YYYY-MM-DD"},
		},
		Action: func(c *cli.Context) error {
			s, err := siteArg(c, 0)
			if err != nil {
				return outputError(err)
			}
			user := c.Args().Get(1)
			if user == "" {
				return outputError(errors.NewValidation("missing user argument"))
			}

			x := tools.NewXToolsPages(s, user)
			x.NamespaceID = uint32(c.Uint("namespace"))
			x.Redirects = tools.Redirects(c.String("redirects"))
			x.Deleted = tools.DeletedPages(c.String("deleted"))
			x.StartDate = c.String("start")
			x.EndDate = c.String("end")

			if err := tools.Run(c.Context, env.client, x); err != nil {
				return outputError(err)
			}
			return outputPageList(c.Context, env, x.PageList())
		},
	}
}

func searchCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search on a wiki",
		ArgsUsage: "<wiki> <query>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "namespaces", Value: "0", Usage: "Pipe-separated namespace IDs"},
			&cli.UintFlag{Name: "limit", Value: 10, Usage: "Maximum number of hits"},
			&cli.UintFlag{Name: "offset", Value: 0, Usage: "Search offset for paging"},
		},
		Action: func(c *cli.Context) error {
			s, err := siteArg(c, 0)
			if err != nil {
				return outputError(err)
			}
			query := c.Args().Get(1)
			if query == "" {
				return outputError(errors.NewValidation("missing query argument"))
			}

			ws := tools.NewWikiSearch(s, query).
				WithNamespaceIDs(c.String("namespaces")).
				WithLimit(uint32(c.Uint("limit"))).
				WithOffset(uint32(c.Uint("offset")))

			if err := tools.Run(c.Context, env.client, ws); err != nil {
				return outputError(err)
			}

			f, err := env.ns.ForSite(c.Context, s)
			if err != nil {
				return outputError(err)
			}
			return outputPageList(c.Context, env, ws.PageList(f))
		},
	}
}

func grepCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "grep",
		Usage:     "List pages whose titles match a regular expression",
		ArgsUsage: "<wiki> <pattern>",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "namespace", Value: 0, Usage: "Namespace ID"},
			&cli.BoolFlag{Name: "redirects", Usage: "Include redirects"},
			&cli.BoolFlag{Name: "limit100", Usage: "Cap results at 100 titles"},
		},
		Action: func(c *cli.Context) error {
			s, err := siteArg(c, 0)
			if err != nil {
				return outputError(err)
			}
			pattern := c.Args().Get(1)
			if pattern == "" {
				return outputError(errors.NewValidation("missing pattern argument"))
			}

			g := tools.NewGrep(s, pattern).WithNamespaceID(uint32(c.Uint("namespace")))
			if c.Bool("redirects") {
				g.WithRedirects()
			}
			if c.Bool("limit100") {
				g.WithLimit100()
			}

			if err := tools.Run(c.Context, env.client, g); err != nil {
				return outputError(err)
			}
			return outputPageList(c.Context, env, g.PageList())
		},
	}
}

func sparqlRCCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "sparql_rc",
		Usage:     "List recent changes to entities matched by a SPARQL query",
		ArgsUsage: "<sparql>",
		Flags: []cli.Flag{
			&cli.TimestampFlag{Name: "start", Layout: "2006-01-02", Required: true, Usage: "Window start"},
			&cli.TimestampFlag{Name: "end", Layout: "2006-01-02", Usage: "Window end"},
			&cli.BoolFlag{Name: "no-bots", Usage: "Exclude bot edits"},
			&cli.BoolFlag{Name: "skip-unchanged", Usage: "Skip entities without real changes"},
		},
		Action: func(c *cli.Context) error {
			sparql := c.Args().First()
			if sparql == "" {
				return outputError(errors.NewValidation("missing sparql argument"))
			}

			rc := tools.NewSparqlRC(sparql).WithStart(*c.Timestamp("start"))
			if end := c.Timestamp("end"); end != nil {
				rc.WithEnd(*end)
			}
			rc.NoBotEdits = c.Bool("no-bots")
			rc.SkipUnchanged = c.Bool("skip-unchanged")

			if err := tools.Run(c.Context, env.client, rc); err != nil {
				return outputError(err)
			}
			return outputJSON(rc.Results)
		},
	}
}

func quickStatementsCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "quickstatements",
		Usage: "Start a server-side QuickStatements batch (commands from stdin, one per line)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "batch", Usage: "Batch name"},
			&cli.BoolFlag{Name: "no-compression", Usage: "Deactivate command compression"},
		},
		Action: func(c *cli.Context) error {
			creds := env.cfg.QuickStatements
			if creds.Username == "" || creds.Token == "" {
				return outputError(errors.NewValidation("quickstatements credentials missing; set them in the config file or WIKITOOLS_QS_USER / WIKITOOLS_QS_TOKEN"))
			}

			qs := tools.NewQuickStatements(creds.Username, creds.Token).WithBatchName(c.String("batch"))
			if c.Bool("no-compression") {
				qs.NoCompression()
			}

			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return outputError(errors.NewValidation("cannot read commands from stdin: " + err.Error()))
			}
			for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
				if line != "" {
					qs.AddCommand(line)
				}
			}

			if err := tools.Run(c.Context, env.client, qs); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"batch_id": qs.BatchID})
		},
	}
}

func pageviewsCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "pageviews",
		Usage:     "Fetch per-article view counts from the Wikimedia Pageviews API",
		ArgsUsage: "<project> <page>...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "granularity", Value: "monthly", Usage: "hourly|daily|monthly"},
			&cli.StringFlag{Name: "access", Value: "all-access", Usage: "all-access|desktop|mobile-app|mobile-web"},
			&cli.StringFlag{Name: "agent", Value: "all-agents", Usage: "all-agents|user|spider|automated"},
			&cli.TimestampFlag{Name: "start", Layout: "2006-01-02", Required: true, Usage: "Start date"},
			&cli.TimestampFlag{Name: "end", Layout: "2006-01-02", Required: true, Usage: "End date"},
			&cli.IntFlag{Name: "concurrency", Value: 5, Usage: "Concurrent requests"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewValidation("want a project and at least one page"))
			}
			project := c.Args().First()

			pv := tools.NewPageviews(
				tools.PageviewsGranularity(c.String("granularity")),
				tools.PageviewsAccess(c.String("access")),
				tools.PageviewsAgent(c.String("agent")),
			)

			pages := make([]tools.ProjectPage, 0, c.NArg()-1)
			for _, page := range c.Args().Slice()[1:] {
				pages = append(pages, tools.ProjectPage{Project: project, Page: page})
			}

			results, err := pv.MultipleArticles(c.Context, env.client, pages,
				*c.Timestamp("start"), *c.Timestamp("end"), c.Int("concurrency"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(results)
		},
	}
}

func persondataCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "persondata",
		Usage:     "Query template usage on German Wikipedia",
		ArgsUsage: "<template>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "param", Usage: "Filter by parameter name"},
			&cli.StringFlag{Name: "value", Usage: "Filter by parameter value"},
			&cli.UintFlag{Name: "occurrence", Usage: "Restrict to the nth transclusion"},
		},
		Action: func(c *cli.Context) error {
			tmpl := c.Args().First()
			if tmpl == "" {
				return outputError(errors.NewValidation("missing template argument"))
			}

			p := tools.NewPersondataTemplates(tmpl)
			if name := c.String("param"); name != "" {
				p.WithParamName(name, tools.ParamNameEqual)
			}
			if value := c.String("value"); value != "" {
				p.WithParamValue(value, tools.ParamValueEqual)
			}
			if c.IsSet("occurrence") {
				p.WithOccurrence(uint32(c.Uint("occurrence")), tools.OccEqual)
			}

			if err := tools.Run(c.Context, env.client, p); err != nil {
				return outputError(err)
			}
			return outputJSON(p.Results)
		},
	}
}

func subsetCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "subset",
		Usage:     "Keep the pages of list A that also occur in list B",
		ArgsUsage: "<a.json> <b.json>",
		Flags:     setOpFlags(),
		Action: func(c *cli.Context) error {
			return runSetOp(c, env, (*pagelist.PageList).Subset)
		},
	}
}

func unionCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "union",
		Usage:     "Combine the pages of lists A and B",
		ArgsUsage: "<a.json> <b.json>",
		Flags:     setOpFlags(),
		Action: func(c *cli.Context) error {
			return runSetOp(c, env, (*pagelist.PageList).Union)
		},
	}
}

func setOpFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "sitelinks", Usage: "Translate via Wikidata sitelinks instead of wd-infernal"},
	}
}

type setOp func(pl *pagelist.PageList, ctx context.Context, tr pagelist.Translator, ns title.Source, other *pagelist.PageList) (*pagelist.PageList, error)

func runSetOp(c *cli.Context, env *appEnv, op setOp) error {
	if c.NArg() != 2 {
		return outputError(errors.NewValidation("want exactly two page-list files"))
	}

	a, err := pagelist.FromFile(c.Args().Get(0))
	if err != nil {
		return outputError(err)
	}
	b, err := pagelist.FromFile(c.Args().Get(1))
	if err != nil {
		return outputError(err)
	}

	var tr pagelist.Translator
	if c.Bool("sitelinks") {
		tr = wikidata.NewSitelinkTranslator(wikidata.NewClient(env.client))
	} else {
		tr = pagelist.NewInfernalTranslator(env.client)
	}

	out, err := op(a, c.Context, tr, env.ns, b)
	if err != nil {
		return outputError(err)
	}
	return outputPageList(c.Context, env, out)
}

// Helper functions

// outputPageList prints a page-list document on stdout, using the
// list's own wiki for the prefixed titles.
func outputPageList(ctx context.Context, env *appEnv, pl *pagelist.PageList) error {
	f, err := env.ns.ForSite(ctx, pl.Site)
	if err != nil {
		return outputError(err)
	}
	data, err := pl.ToJSON(f)
	if err != nil {
		return outputError(err)
	}
	fmt.Println(string(data))
	return nil
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if toolErr, ok := err.(*errors.ToolError); ok {
		msg := toolErr.Message
		if toolErr.Err != nil {
			msg = fmt.Sprintf("%s: %v", toolErr.Message, toolErr.Err)
		}
		return cli.Exit(fmt.Sprintf("[%s] %s", toolErr.Kind, msg), 1)
	}
	return cli.Exit(err.Error(), 1)
}

func siteArg(c *cli.Context, pos int) (site.Site, error) {
	wiki := c.Args().Get(pos)
	if wiki == "" {
		return site.Site{}, errors.NewValidation("missing wiki argument")
	}
	return site.FromWiki(wiki)
}

func uintArg(c *cli.Context, pos int, name string) (uint64, error) {
	arg := c.Args().Get(pos)
	if arg == "" {
		return 0, errors.NewValidation("missing " + name + " argument")
	}
	var id uint64
	if _, err := fmt.Sscanf(arg, "%d", &id); err != nil {
		return 0, errors.NewValidation("bad " + name + ": " + arg)
	}
	return id, nil
}
