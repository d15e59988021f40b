package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/oauth2"

	"ytfeed/config"
	"ytfeed/fallback"
	"ytfeed/feed"
	ytfhttp "ytfeed/http"
	"ytfeed/quota"
	"ytfeed/retry"
	"ytfeed/storage"
	"ytfeed/youtube"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "resolve":
		cmdResolve(args)
	case "feed":
		cmdFeed(args)
	case "quota":
		cmdQuota(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `ytfeed - YouTube subscription feed aggregator

Usage:
  ytfeed resolve [flags] <channel-ref>        Resolve a channel reference to its canonical id
  ytfeed feed [flags] [<channel-ref> ...]     Build a merged feed across channels;
                                              with no refs, across the account's subscriptions
  ytfeed quota                                Show daily API quota usage
  ytfeed help                                 Show this help message

Examples:
  ytfeed resolve @linustechtips
  ytfeed resolve https://www.youtube.com/channel/UCuAXFkgsw1L7xaCfnd5JJOw
  ytfeed feed                                           # all subscribed channels (needs token)
  ytfeed feed @mkbhd @linustechtips                     # merged feed, newest first
  ytfeed feed --sort views --dir desc --max 10 @mkbhd   # most viewed first
  ytfeed feed --rss @mkbhd                              # zero-quota RSS path
  ytfeed feed --duration short --title review @mkbhd    # filtered

Set YTFEED_API_TOKEN to use the Data API; without it resolution uses
public mirrors and feeds are fetched over RSS.

For help on a specific command: ytfeed <command> -h
`)
}

// deps bundles the wired-up application pieces.
type deps struct {
	cfg        *config.Config
	store      *storage.KVStore
	tracker    *quota.Tracker
	api        *youtube.APIClient
	aggregator *feed.Aggregator
	source     youtube.UploadsSource
}

// buildDeps wires config, storage, quota, resolvers, and the uploads
// source. forceRSS skips the API source even when a token is present.
func buildDeps(ctx context.Context, forceRSS bool) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	store, err := storage.NewKVStore(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	tracker, err := quota.New(store, cfg.QuotaCeiling, cfg.QuotaTimezone)
	if err != nil {
		store.Close()
		return nil, err
	}

	retryCfg := retry.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		Multiplier:     cfg.BackoffMultiplier,
		JitterFraction: 0.2,
	}

	httpCfg := ytfhttp.DefaultConfig()
	httpCfg.Timeout = cfg.HTTPTimeout
	httpCfg.Retry = retryCfg

	chain := fallback.NewChain(ytfhttp.New(httpCfg))
	chain.SetAttemptTimeout(cfg.FallbackAttemptTimeout)

	d := &deps{cfg: cfg, store: store, tracker: tracker}

	var primary feed.Resolver
	if cfg.APIToken != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIToken})
		api, err := youtube.NewAPIClient(ctx, ts, tracker)
		if err != nil {
			store.Close()
			return nil, err
		}
		api.SetRetryConfig(retryCfg)
		d.api = api
		primary = feed.ResolverFunc(api.ResolveIdentifier)
	}

	if d.api != nil && !forceRSS {
		d.source = d.api
	} else {
		d.source = youtube.NewRSSLister()
	}

	fetcher := feed.NewFetcher(d.source, cfg.ConcurrencyCap, cfg.PerChannelLimit)
	d.aggregator = feed.NewAggregator(primary, chain, fetcher, tracker)
	if d.api != nil {
		d.aggregator.SetSubscriptionLister(d.api)
	}
	tracker.StartAutoReset(ctx, quota.DefaultResetInterval)
	return d, nil
}

func (d *deps) close() {
	if d.store != nil {
		d.store.Close()
	}
}

func cmdResolve(args []string) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytfeed resolve [flags] <channel-ref>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing channel reference\n")
		fs.Usage()
		os.Exit(1)
	}

	ctx := context.Background()
	d, err := buildDeps(ctx, false)
	if err != nil {
		fatal(err)
	}
	defer d.close()

	res, err := d.aggregator.ResolveInput(ctx, strings.Join(argv, " "))
	if err != nil {
		fatal(err)
	}

	if *asJSON {
		out, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(out))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Channel ID:\t%s\n", res.ChannelID)
	fmt.Fprintf(w, "Title:\t%s\n", res.Title)
	if res.Thumbnail != "" {
		fmt.Fprintf(w, "Thumbnail:\t%s\n", res.Thumbnail)
	}
	fmt.Fprintf(w, "Resolved via:\t%s\n", res.Source)
	w.Flush()
}

func cmdFeed(args []string) {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	sortKey := fs.String("sort", "published", "Sort key: published, views, title, or relevance")
	dir := fs.String("dir", "", "Sort direction: asc or desc (default desc for published, asc otherwise)")
	maxItems := fs.Int("max", 0, "Page size (0 = config default)")
	cursor := fs.String("cursor", "", "Resume from a previous page's cursor")
	duration := fs.String("duration", "", "Duration filter: short, medium, or long")
	title := fs.String("title", "", "Keep only videos whose title contains this text")
	since := fs.String("since", "", "Only videos published after this date (RFC3339)")
	until := fs.String("until", "", "Only videos published before this date (RFC3339)")
	useRSS := fs.Bool("rss", false, "Fetch uploads over RSS even when an API token is set")
	asJSON := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytfeed feed [flags] [<channel-ref> ...]\n\nWithout channel references the feed aggregates the authenticated\naccount's subscriptions (requires YTFEED_API_TOKEN).\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	argv := fs.Args()

	filters := feed.Filters{
		Duration:   feed.DurationBucket(*duration),
		TitleQuery: *title,
	}
	if *since != "" {
		t, err := time.Parse(time.RFC3339, *since)
		if err != nil {
			fatal(fmt.Errorf("parse --since: %w (use RFC3339 format)", err))
		}
		filters.From = t
	}
	if *until != "" {
		t, err := time.Parse(time.RFC3339, *until)
		if err != nil {
			fatal(fmt.Errorf("parse --until: %w (use RFC3339 format)", err))
		}
		filters.To = t
	}

	ctx := context.Background()
	d, err := buildDeps(ctx, *useRSS)
	if err != nil {
		fatal(err)
	}
	defer d.close()

	// Resolve each reference to a canonical id; with no references the
	// feed covers the account's subscriptions instead.
	var channelIDs []string
	if len(argv) == 0 {
		channelIDs, err = d.aggregator.SubscribedChannels(ctx)
		if err != nil {
			fatal(fmt.Errorf("list subscriptions: %w", err))
		}
		if len(channelIDs) == 0 {
			fatal(fmt.Errorf("the account has no subscriptions"))
		}
	} else {
		for _, ref := range argv {
			res, err := d.aggregator.ResolveInput(ctx, ref)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: skipping %q: %v\n", ref, err)
				continue
			}
			channelIDs = append(channelIDs, res.ChannelID)
		}
		if len(channelIDs) == 0 {
			fatal(fmt.Errorf("no channel reference could be resolved"))
		}
	}

	pageSize := *maxItems
	if pageSize <= 0 {
		pageSize = d.cfg.PageSize
	}

	result, err := d.aggregator.BuildFeed(ctx, feed.FeedRequest{
		ChannelIDs: channelIDs,
		Sort:       feed.SortKey(*sortKey),
		Dir:        feed.SortDir(*dir),
		Filters:    filters,
		PageSize:   pageSize,
		Cursor:     *cursor,
	})
	if err != nil {
		fatal(err)
	}

	for channelID, ferr := range result.Failed {
		fmt.Fprintf(os.Stderr, "Warning: channel %s failed: %v\n", channelID, ferr)
	}

	if *asJSON {
		out, _ := json.MarshalIndent(result.Page, "", "  ")
		fmt.Println(string(out))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PUBLISHED\tCHANNEL\tDURATION\tVIEWS\tTITLE")
	for _, rec := range result.Page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.Published.Format("2006-01-02 15:04"),
			rec.ChannelTitle,
			formatDuration(rec.Duration),
			formatViews(rec.ViewCount),
			rec.Title,
		)
	}
	w.Flush()

	fmt.Printf("\n%d of %d video(s)", len(result.Page.Items), result.Page.TotalSeen)
	if result.Page.HasMore {
		fmt.Printf("; next page: --cursor %s", result.Page.NextCursor)
	}
	fmt.Println()
}

func cmdQuota(args []string) {
	fs := flag.NewFlagSet("quota", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytfeed quota\n")
	}
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}

	store, err := storage.NewKVStore(cfg.StorePath)
	if err != nil {
		fatal(err)
	}
	defer store.Close()

	tracker, err := quota.New(store, cfg.QuotaCeiling, cfg.QuotaTimezone)
	if err != nil {
		fatal(err)
	}

	state := "active"
	if tracker.IsExhausted() {
		state = "exhausted"
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Quota day:\t%s (%s)\n", tracker.ResetDateKey(), cfg.QuotaTimezone)
	fmt.Fprintf(w, "Units used:\t%d / %d\n", tracker.UnitsUsed(), tracker.Ceiling())
	fmt.Fprintf(w, "Remaining:\t%d\n", tracker.Remaining())
	fmt.Fprintf(w, "State:\t%s\n", state)
	w.Flush()
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatViews(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	case n == 0:
		return "-"
	default:
		return fmt.Sprintf("%d", n)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
