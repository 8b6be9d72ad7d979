package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/osintkit/tubetrail/internal/config"
	"github.com/osintkit/tubetrail/internal/hunt"
	"github.com/osintkit/tubetrail/internal/report"
	"github.com/osintkit/tubetrail/internal/storage"
	"github.com/osintkit/tubetrail/internal/youtube"
)

// The current-session marker remembers the last hunted or selected session
// so follow-up commands default to it without a --session flag.

func sessionFilePath(dataDir string) string {
	return filepath.Join(dataDir, "session")
}

func writeSessionFile(path string, id int64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.FormatInt(id, 10)), 0o644)
}

func readSessionFile(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
}

func openStore() (*storage.Store, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.Config{}, err
	}
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("opening storage: %w", err)
	}
	return store, cfg, nil
}

// resolveSession picks the session to operate on: the --session flag, then
// the current-session marker, then the most recent session in the store.
func resolveSession(cmd *cobra.Command, store *storage.Store, dataDir string) (int64, error) {
	if id, _ := cmd.Flags().GetInt64("session"); id > 0 {
		return id, nil
	}
	if id, err := readSessionFile(sessionFilePath(dataDir)); err == nil && id > 0 {
		return id, nil
	}
	id, err := store.LatestSessionID()
	if err != nil {
		return 0, fmt.Errorf("no sessions collected yet, run 'tubetrail hunt <keyword>' first")
	}
	return id, nil
}

func addSessionFlag(cmd *cobra.Command) {
	cmd.Flags().Int64("session", 0, "session ID (default: current session)")
}

// --- hunt ---

var huntCmd = &cobra.Command{
	Use:   "hunt <keyword>",
	Short: "Run one collection pass for a search keyword",
	Long: `Run one collection pass for a search keyword.

Searches the platform, stores candidate videos, and extracts contacts from
video descriptions, channel descriptions, and comments. Channel and comment
enrichment needs a YouTube Data API key; without one the hunt still
collects search results and description contacts.

Examples:
  tubetrail hunt "free robux generator"
  tubetrail hunt "cheap followers" --limit 50 --max-comments 40 --note "follow-up"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyword := strings.Join(args, " ")
		limit, _ := cmd.Flags().GetInt("limit")
		maxComments, _ := cmd.Flags().GetInt("max-comments")
		note, _ := cmd.Flags().GetString("note")

		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if limit <= 0 {
			limit = cfg.Hunt.SearchLimit
		}
		if maxComments <= 0 {
			maxComments = cfg.Hunt.MaxComments
		}
		if cfg.YouTube.APIKey == "" {
			printWarning("no YouTube API key configured, skipping channel and comment enrichment")
			printWarning("%s", config.APIKeyHelp())
		}

		printStep("Hunting %q...", keyword)
		source := youtube.New(cfg.YouTube.APIKey, nil)
		runner := hunt.NewRunner(store, source, nil)
		res, err := runner.Run(cmd.Context(), keyword, hunt.Options{
			Limit:       limit,
			MaxComments: maxComments,
			Note:        note,
		})
		if err != nil {
			return err
		}

		if err := writeSessionFile(sessionFilePath(cfg.Storage.DataDir), res.SessionID); err != nil {
			printWarning("could not write session marker: %v", err)
		}

		printSuccess("Session %d collected (tag %s)", res.SessionID, res.Note)
		printStatus("Videos", "%d", res.Videos)
		printStatus("Channels", "%d", res.Channels)
		printStatus("Comments", "%d", res.Comments)
		printStatus("Contacts", "%d", res.Contacts)
		if res.Failures > 0 {
			printWarning("%d items skipped due to errors (see log)", res.Failures)
		}
		return nil
	},
}

func init() {
	huntCmd.Flags().Int("limit", 0, "max candidate videos (default: config hunt.search_limit)")
	huntCmd.Flags().Int("max-comments", 0, "comments fetched per video (default: config hunt.max_comments)")
	huntCmd.Flags().String("note", "", "session note (default: generated tag)")
}

// --- sessions / use ---

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List collection sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := store.ListSessions(limit)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		current, _ := readSessionFile(sessionFilePath(cfg.Storage.DataDir))
		for _, s := range sessions {
			marker := " "
			if s.ID == current {
				marker = colorize(colorGreen, "*")
			}
			fmt.Printf("%s %s  %s  %q  %s\n",
				marker,
				colorize(colorCyan, fmt.Sprintf("#%d", s.ID)),
				s.CreatedAt.Format("2006-01-02 15:04"),
				s.Keyword,
				s.Note,
			)
		}
		return nil
	},
}

var useCmd = &cobra.Command{
	Use:   "use <session-id>",
	Short: "Select the current session for follow-up commands",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid session ID %q", args[0])
		}

		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		sess, err := store.GetSession(id)
		if err != nil {
			return fmt.Errorf("session %d: %w", id, err)
		}

		if err := writeSessionFile(sessionFilePath(cfg.Storage.DataDir), sess.ID); err != nil {
			return fmt.Errorf("writing session marker: %w", err)
		}
		printSuccess("Current session is now %d (%q)", sess.ID, sess.Keyword)
		return nil
	},
}

func init() {
	sessionsCmd.Flags().Int("limit", 20, "maximum number of sessions to list")
}

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show row counts for a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		sid, err := resolveSession(cmd, store, cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		sess, err := store.GetSession(sid)
		if err != nil {
			return fmt.Errorf("session %d: %w", sid, err)
		}
		stats, err := store.SessionStats(sid)
		if err != nil {
			return err
		}

		fmt.Printf("%s %q (%s)\n", colorize(colorBold, fmt.Sprintf("Session %d", sess.ID)), sess.Keyword, sess.CreatedAt.Format("2006-01-02 15:04"))
		printStatus("Videos", "%d", stats.Videos)
		printStatus("Channels", "%d", stats.Channels)
		printStatus("Comments", "%d", stats.Comments)
		printStatus("Video contacts", "%d", stats.VideoContacts)
		printStatus("Channel contacts", "%d", stats.ChannelContacts)
		printStatus("Comment contacts", "%d", stats.CommentContacts)
		for _, tc := range stats.ByType {
			printStatus("  "+tc.ContactType, "%d", tc.Count)
		}
		return nil
	},
}

// --- videos / channels ---

var videosCmd = &cobra.Command{
	Use:   "videos",
	Short: "List collected videos, most viewed first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		sid, err := resolveSession(cmd, store, cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		videos, err := store.ListVideos(sid, limit)
		if err != nil {
			return err
		}
		if len(videos) == 0 {
			fmt.Println("No videos found.")
			return nil
		}

		for _, v := range videos {
			fmt.Printf("%s  %s\n", colorize(colorCyan, v.VideoID), v.Title)
			fmt.Printf("    %s | %d views | %s\n", v.ChannelName, v.ViewCount, v.URL)
		}
		return nil
	},
}

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List collected channels, most subscribed first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		minSubs, _ := cmd.Flags().GetInt64("min-subs")

		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		sid, err := resolveSession(cmd, store, cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		channels, err := store.ListChannels(sid, minSubs, limit)
		if err != nil {
			return err
		}
		if len(channels) == 0 {
			fmt.Println("No channels found.")
			return nil
		}

		for _, c := range channels {
			fmt.Printf("%s  %s\n", colorize(colorCyan, c.ChannelID), c.Title)
			fmt.Printf("    %d subscribers | %d videos | %s\n", c.SubscriberCount, c.VideoCount, c.Country)
		}
		return nil
	},
}

func init() {
	addSessionFlag(videosCmd)
	videosCmd.Flags().Int("limit", 50, "maximum number of videos to list")
	addSessionFlag(channelsCmd)
	channelsCmd.Flags().Int("limit", 50, "maximum number of channels to list")
	channelsCmd.Flags().Int64("min-subs", 0, "only channels with at least this many subscribers")
	addSessionFlag(statsCmd)
}

// --- contacts ---

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Search extracted contacts in a session",
	Long: `Search extracted contacts in a session.

Examples:
  tubetrail contacts --type telegram
  tubetrail contacts --value t.me/
  tubetrail contacts --source comment --type email`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctype, _ := cmd.Flags().GetString("type")
		value, _ := cmd.Flags().GetString("value")
		source, _ := cmd.Flags().GetString("source")
		limit, _ := cmd.Flags().GetInt("limit")

		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		sid, err := resolveSession(cmd, store, cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		hits, err := store.SearchContacts(sid, storage.ContactFilter{
			ContactType: ctype,
			ValueLike:   value,
			Source:      source,
			Limit:       limit,
		})
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("No contacts found.")
			return nil
		}

		for _, h := range hits {
			fmt.Printf("%s  %s\n", colorize(colorBold, h.Value), colorize(colorCyan, h.ContactType))
			fmt.Printf("    from %s %q  %s\n", h.Source, h.OwnerTitle, h.OwnerURL)
		}
		return nil
	},
}

func init() {
	addSessionFlag(contactsCmd)
	contactsCmd.Flags().String("type", "", "contact type (telegram, discord, email, http, pastebin)")
	contactsCmd.Flags().String("value", "", "substring match on the contact value")
	contactsCmd.Flags().String("source", "", "contact source (video, comment, channel)")
	contactsCmd.Flags().Int("limit", 100, "maximum number of contacts to list")
}

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Show cross-source findings for a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		minSubs, _ := cmd.Flags().GetInt64("min-subs")

		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		sid, err := resolveSession(cmd, store, cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		if minSubs <= 0 {
			minSubs = int64(cfg.Report.MinSubscribers)
		}

		withContacts, err := store.ChannelsWithContacts(sid)
		if err != nil {
			return err
		}
		quiet, err := store.QuietLargeChannels(sid, minSubs, 10)
		if err != nil {
			return err
		}
		repeated, err := store.RepeatedContacts(sid)
		if err != nil {
			return err
		}

		fmt.Println(colorize(colorBold, "Channels with contacts"))
		if len(withContacts) == 0 {
			fmt.Println("  none")
		}
		for _, c := range withContacts {
			fmt.Printf("  %s  %s (%d subscribers, %d contacts)\n",
				colorize(colorCyan, c.ChannelID), c.Title, c.SubscriberCount, c.ContactCount)
		}

		fmt.Printf("\n%s\n", colorize(colorBold, fmt.Sprintf("Large channels (>= %d subscribers) without contacts", minSubs)))
		if len(quiet) == 0 {
			fmt.Println("  none")
		}
		for _, c := range quiet {
			fmt.Printf("  %s  %s (%d subscribers, %d videos)\n",
				colorize(colorCyan, c.ChannelID), c.Title, c.SubscriberCount, c.VideoCount)
		}

		fmt.Printf("\n%s\n", colorize(colorBold, "Repeated contacts"))
		if len(repeated) == 0 {
			fmt.Println("  none")
		}
		for _, rc := range repeated {
			fmt.Printf("  %s  %s x%d (%s)\n",
				colorize(colorBold, rc.Value), rc.ContactType, rc.Count, strings.Join(rc.Sources, ", "))
		}
		return nil
	},
}

func init() {
	addSessionFlag(analyzeCmd)
	analyzeCmd.Flags().Int64("min-subs", 0, "subscriber threshold (default: config report.min_subscribers)")
}

// --- report ---

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a session report",
	Long: `Render a session report.

Formats: md (Markdown, default), html, csv. The csv format writes three
files next to --out: <out>_videos.csv, <out>_channels.csv, <out>_contacts.csv.

Examples:
  tubetrail report
  tubetrail report --format html --out report.html
  tubetrail report --format csv --out ./export`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		sid, err := resolveSession(cmd, store, cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		data, err := report.Load(store, sid)
		if err != nil {
			return err
		}
		content, err := report.Render(data, format, out)
		if err != nil {
			return err
		}

		if out != "" {
			printSuccess("Report written to %s", out)
			return nil
		}
		fmt.Print(content)
		return nil
	},
}

func init() {
	addSessionFlag(reportCmd)
	reportCmd.Flags().String("format", report.FormatMarkdown, "report format: md, html, or csv")
	reportCmd.Flags().String("out", "", "output path (required for csv)")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return fmt.Errorf("usage: config set <key> <value> (keys: %s)", strings.Join(config.ValidKeys(), ", "))
		}
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
