package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nutrichef/internal/api"
	"nutrichef/internal/config"
	"nutrichef/internal/cookbook"
	"nutrichef/internal/logger"
	"nutrichef/internal/query"
	"nutrichef/internal/recipe"
	"nutrichef/internal/storage"
)

// timeNow stamps new recipes and dates the dashboard's "today" count.
var timeNow = time.Now

var openStore = storage.Open

type options struct {
	configPath string
	dataDir    string
	addr       string
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "nutrichef",
		Short:        "Recipe generator with favorites and history",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (json or yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "data directory of the file backend")
	rootCmd.PersistentFlags().StringVar(&opts.addr, "addr", "", "HTTP listen address for serve")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "verbose console logging")

	rootCmd.AddCommand(generateCmd(opts))
	rootCmd.AddCommand(listCmd(opts))
	rootCmd.AddCommand(showCmd(opts))
	rootCmd.AddCommand(favoritesCmd(opts))
	rootCmd.AddCommand(historyCmd(opts))
	rootCmd.AddCommand(dashboardCmd(opts))
	rootCmd.AddCommand(serveCmd(opts))
	return rootCmd
}

func (o *options) load() (*config.Config, error) {
	cfg, err := config.Read(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dataDir != "" {
		cfg.Storage.DataDir = o.dataDir
	}
	if o.addr != "" {
		cfg.Server.Addr = o.addr
	}
	if o.debug {
		cfg.Log.Development = true
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// The CLI stays quiet unless asked for logs.
	if cfg.Log.Development {
		if err := logger.Init(true, cfg.Log.Level); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (o *options) openCookbook(ctx context.Context) (*cookbook.Cookbook, *config.Config, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	cb, err := cookbook.Open(ctx, store, cookbook.WithClock(timeNow))
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return cb, cfg, nil
}

func generateCmd(opts *options) *cobra.Command {
	var (
		cuisine    string
		difficulty string
		prepTime   int
		servings   int
		favorite   bool
	)

	cmd := &cobra.Command{
		Use:   "generate [ingredient...]",
		Short: "Generate a recipe from ingredients (arguments or one per line on stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ingredients := args
			if len(ingredients) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read ingredients: %w", err)
				}
				ingredients = recipe.ParseIngredients(string(data))
			}

			d, err := recipe.ParseDifficulty(difficulty)
			if err != nil {
				return err
			}

			cb, _, err := opts.openCookbook(cmd.Context())
			if err != nil {
				return err
			}
			defer cb.Close()

			r, err := cb.Generate(cmd.Context(), recipe.Request{
				Ingredients: ingredients,
				Cuisine:     cuisine,
				Difficulty:  d,
				PrepTime:    prepTime,
				Servings:    servings,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printRecipe(out, r)

			if favorite {
				outcome, err := cb.AddToFavorites(cmd.Context(), r.ID, r.Name)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, outcome.Message(r.Name))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cuisine, "cuisine", recipe.Cuisines[0], "cuisine ("+strings.Join(recipe.Cuisines, ", ")+")")
	cmd.Flags().StringVar(&difficulty, "difficulty", recipe.DefaultDifficulty.String(), "difficulty (Very Easy .. Very Hard)")
	cmd.Flags().IntVar(&prepTime, "prep-time", recipe.DefaultPrepTime, "preparation time in minutes")
	cmd.Flags().IntVar(&servings, "servings", recipe.DefaultServings, "number of servings")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "add the recipe to favorites")
	return cmd
}

func listCmd(opts *options) *cobra.Command {
	var cuisine, difficulty string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			var d recipe.Difficulty
			if difficulty != "" {
				parsed, err := recipe.ParseDifficulty(difficulty)
				if err != nil {
					return err
				}
				d = parsed
			}

			cb, _, err := opts.openCookbook(cmd.Context())
			if err != nil {
				return err
			}
			defer cb.Close()

			out := cmd.OutOrStdout()
			recipes := cb.FilterRecipes(cuisine, d)
			if len(recipes) == 0 {
				fmt.Fprintln(out, "No recipes yet. Use 'nutrichef generate' to create one.")
				return nil
			}
			for _, r := range recipes {
				star := " "
				if cb.IsFavorite(r.ID) {
					star = "*"
				}
				fmt.Fprintf(out, "%s %s  %s (%s, %s)\n", star, r.ID, r.Name, r.Cuisine, r.Difficulty)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cuisine, "cuisine", "", "only recipes of this cuisine")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "only recipes of this difficulty")
	return cmd
}

func showCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cb, _, err := opts.openCookbook(cmd.Context())
			if err != nil {
				return err
			}
			defer cb.Close()

			r, ok := cb.Recipe(args[0])
			if !ok {
				return fmt.Errorf("recipe %s not found", args[0])
			}
			printRecipe(cmd.OutOrStdout(), &r)
			return nil
		},
	}
}

func favoritesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List favorite recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cb, _, err := opts.openCookbook(cmd.Context())
			if err != nil {
				return err
			}
			defer cb.Close()

			out := cmd.OutOrStdout()
			favorites := cb.ResolveFavorites()
			if len(favorites) == 0 {
				fmt.Fprintln(out, "No favorite recipes yet.")
				return nil
			}
			for _, r := range favorites {
				fmt.Fprintf(out, "%s  %s\n    %s\n", r.ID, r.Name, recipe.IngredientPreview(r.Ingredients, 5, ", "))
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add [id]",
		Short: "Add a recipe to favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cb, _, err := opts.openCookbook(cmd.Context())
			if err != nil {
				return err
			}
			defer cb.Close()

			r, ok := cb.Recipe(args[0])
			if !ok {
				return fmt.Errorf("recipe %s not found", args[0])
			}
			outcome, err := cb.AddToFavorites(cmd.Context(), r.ID, r.Name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outcome.Message(r.Name))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove [id]",
		Short: "Remove a recipe from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cb, _, err := opts.openCookbook(cmd.Context())
			if err != nil {
				return err
			}
			defer cb.Close()

			removed, err := cb.RemoveFromFavorites(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintln(cmd.OutOrStdout(), "Removed from favorites.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Not a favorite.")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Drop favorites whose recipe no longer exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			cb, _, err := opts.openCookbook(cmd.Context())
			if err != nil {
				return err
			}
			defer cb.Close()

			n, err := cb.PruneFavorites(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d favorites.\n", n)
			return nil
		},
	})
	return cmd
}

func historyCmd(opts *options) *cobra.Command {
	var (
		q        string
		sort     string
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Search and page through the generation history",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := query.ParseDirection(sort)
			if err != nil {
				return err
			}

			cb, cfg, err := opts.openCookbook(cmd.Context())
			if err != nil {
				return err
			}
			defer cb.Close()

			if pageSize == 0 {
				pageSize = cfg.History.PageSize
			}
			view, err := query.HistoryView(cb.History(), q, dir, pageSize, page)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if view.Total == 0 {
				fmt.Fprintln(out, "No history entries found.")
				return nil
			}
			for i, e := range view.Entries {
				fmt.Fprintf(out, "%3d. %s  %s\n     %s\n", view.Offset+i+1, e.Timestamp, e.RecipeName,
					recipe.IngredientPreview(e.Ingredients, 3, ", "))
			}
			fmt.Fprintf(out, "Page %d of %d (%d entries)\n", view.Page, view.PageCount, view.Total)
			return nil
		},
	}

	cmd.Flags().StringVarP(&q, "query", "q", "", "filter by recipe name")
	cmd.Flags().StringVar(&sort, "sort", "desc", "order by timestamp: desc or asc")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "entries per page (default from config)")
	return cmd
}

func dashboardCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show activity statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cb, _, err := opts.openCookbook(cmd.Context())
			if err != nil {
				return err
			}
			defer cb.Close()

			history := cb.History()
			recipes, favorites, _ := cb.Counts()
			summary := query.Summarize(recipes, favorites, history, timeNow())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Recipes: %d  Favorites: %d  History: %d  Today: %d\n",
				summary.Recipes, summary.Favorites, summary.History, summary.Today)

			if days := query.DailyCounts(history); len(days) > 0 {
				fmt.Fprintln(out, "\nActivity:")
				for _, d := range days {
					fmt.Fprintf(out, "  %s  %d\n", d.Date, d.Count)
				}
			}
			if top := query.TopIngredients(history, query.DefaultTopIngredients); len(top) > 0 {
				fmt.Fprintln(out, "\nTop ingredients:")
				for _, ic := range top {
					fmt.Fprintf(out, "  %-20s %d\n", ic.Ingredient, ic.Count)
				}
			}

			fmt.Fprintln(out, "\nTips:")
			for _, tip := range query.Tips {
				fmt.Fprintf(out, "  - %s\n", tip)
			}
			return nil
		},
	}
}

func serveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cb, cfg, err := opts.openCookbook(cmd.Context())
			if err != nil {
				return err
			}
			defer cb.Close()

			if !cfg.Log.Development {
				if err := logger.Init(false, cfg.Log.Level); err != nil {
					return err
				}
			}
			defer logger.Sync()

			r := api.NewRouter(api.NewHandler(cb, cfg.History.PageSize), cfg.Server.AllowedOrigins)
			logger.Info("listening", zap.String("addr", cfg.Server.Addr))
			return r.Run(cfg.Server.Addr)
		},
	}
}

func printRecipe(out io.Writer, r *recipe.Recipe) {
	fmt.Fprintf(out, "%s\n", r.Name)
	fmt.Fprintf(out, "id: %s  created: %s\n", r.ID, r.CreatedAt)
	fmt.Fprintf(out, "%s | %s | %d min | serves %d\n\n", r.Cuisine, r.Difficulty, r.PrepTime, r.Servings)

	fmt.Fprintln(out, "Ingredients:")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(out, "  - %s\n", ing)
	}
	fmt.Fprintln(out, "\nInstructions:")
	for _, step := range r.Instructions {
		fmt.Fprintf(out, "  %s\n", step)
	}

	n := r.NutritionalInfo
	fmt.Fprintf(out, "\nNutrition: %.0f kcal, protein %.0fg, carbs %.0fg, fat %.0fg, fiber %.0fg\n",
		n.Calories, n.ProteinG, n.CarbsG, n.FatG, n.FiberG)
}
