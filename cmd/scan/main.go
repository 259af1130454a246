// Command scan analyzes menu photos or text from the command line and prints a verdict
// for every dish against a dietary profile.
//
//	scan -lang English -profile profile.json menu1.jpg menu2.jpg
//	scan -text "Pad Thai: rice noodles, peanuts, egg"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pageza/knoweat/backend/config"
	"github.com/pageza/knoweat/backend/internal/matcher"
	"github.com/pageza/knoweat/backend/internal/models"
	"github.com/pageza/knoweat/backend/internal/service"
	"github.com/pageza/knoweat/backend/internal/taxonomy"
)

func main() {
	lang := flag.String("lang", "", "Language to translate the menu into (defaults to the profile's)")
	profilePath := flag.String("profile", "", "Path to a profile JSON file")
	text := flag.String("text", "", "Analyze this menu text instead of photos")
	verbose := flag.Bool("v", false, "Log model calls")
	flag.Parse()

	_ = godotenv.Load()

	logger := zap.NewNop()
	if *verbose {
		logger, _ = zap.NewDevelopment()
	}

	if err := run(*lang, *profilePath, *text, flag.Args(), os.Stdout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		if service.IsRetryable(err) {
			fmt.Fprintln(os.Stderr, "this error is retryable, try again")
		}
		os.Exit(1)
	}
}

func run(lang, profilePath, text string, files []string, out io.Writer, logger *zap.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	tax, err := taxonomy.Load()
	if err != nil {
		return err
	}

	profile, err := loadProfile(profilePath, tax)
	if err != nil {
		return err
	}
	if lang == "" {
		lang = profile.NativeLanguage
	}

	var images [][]byte
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		images = append(images, data)
	}
	if len(images) == 0 && strings.TrimSpace(text) == "" {
		return fmt.Errorf("pass menu photos as arguments or use -text")
	}

	chat, err := service.NewChatClient(cfg.Model, logger)
	if err != nil {
		return err
	}
	analyzer := service.NewMenuAnalyzer(chat, tax, nil, logger)
	retry := service.RetryPolicy{MaxAttempts: cfg.Analysis.MaxAttempts, Backoff: 2 * time.Second, Logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Model.Timeout*time.Duration(max(cfg.Analysis.MaxAttempts, 1)))
	defer cancel()

	var menu *models.Menu
	err = retry.Do(ctx, "analyze", func(ctx context.Context) error {
		var err error
		if len(images) > 0 {
			menu, err = analyzer.AnalyzeMenu(ctx, images, lang)
		} else {
			menu, err = analyzer.AnalyzeMenuText(ctx, text, lang)
		}
		return err
	})
	if err != nil {
		return err
	}

	printMenu(out, menu, matcher.New(tax), profile)
	return nil
}

func loadProfile(path string, tax *taxonomy.Taxonomy) (*models.UserProfile, error) {
	if path == "" {
		return models.NewUserProfile(service.DefaultLanguage), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var profile models.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	if err := profile.Normalize(tax); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return &profile, nil
}

func printMenu(out io.Writer, menu *models.Menu, m *matcher.Matcher, profile *models.UserProfile) {
	fmt.Fprintf(out, "%s (%s, %s)\n", menu.Restaurant, menu.MenuLanguage, menu.CategoryIcon)

	analyzed := m.AnalyzeProfile(menu, profile)
	for _, a := range analyzed {
		fmt.Fprintf(out, "\n[%s] %s", a.Severity, a.Dish.Name)
		if a.Dish.Price != "" {
			fmt.Fprintf(out, "  %s", a.Dish.Price)
		}
		fmt.Fprintln(out)
		if len(a.MatchedTagIDs) > 0 {
			fmt.Fprintf(out, "  matches: %s\n", strings.Join(a.MatchedTagIDs, ", "))
		}
		var flagged []string
		for _, ing := range a.Ingredients {
			if ing.Flagged {
				flagged = append(flagged, ing.Ingredient)
			}
		}
		if len(flagged) > 0 {
			fmt.Fprintf(out, "  flagged ingredients: %s\n", strings.Join(flagged, ", "))
		}
		fmt.Fprintf(out, "  %s\n", a.Explanation)
	}

	fmt.Fprintf(out, "\n%d safe, %d to check\n", matcher.SafeCount(analyzed), matcher.UnsafeCount(analyzed))
}
