package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"umlsd/internal/config"
	"umlsd/internal/hierarchy"
	"umlsd/internal/query"
	"umlsd/internal/server"
	"umlsd/internal/store"
	"umlsd/internal/tooladapter"
)

var (
	rootCmd = &cobra.Command{
		Use:   "umlsd",
		Short: "UMLS ontology graph query engine",
	}
	configPath string
	log        = logrus.New()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(searchCmd)
}

// setup loads configuration and builds the engine stack: store, resolver,
// façade. Callers own closing the returned store.
func setup() (*config.Config, *store.Store, *query.Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.JSONFormatter{})

	st, err := store.Open(cfg.DB.Driver, cfg.DB.DSN, cfg.DB.MaxOpenConns, cfg.DB.MaxIdleConns)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	resolver := hierarchy.New(st, cfg.Query.MaxPathRows)
	svc := query.New(st, resolver, query.Options{
		Timeout:           cfg.Query.Timeout.Std(),
		DefaultVocabulary: cfg.Query.DefaultVocabulary,
		MaxLimit:          cfg.Query.MaxSearchLimit,
	}, log)

	return cfg, st, svc, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP query API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, st, svc, err := setup()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.New(svc, log).Run(ctx, cfg.Server.Addr)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the tool-call adapter for a conversational agent on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, svc, err := setup()
		if err != nil {
			return err
		}
		defer st.Close()

		// stdout carries the protocol; logs must stay on stderr.
		log.SetOutput(os.Stderr)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("tool adapter listening on stdio")
		return tooladapter.New(svc, log).Serve(ctx, os.Stdin, os.Stdout)
	},
}

var (
	searchOntology string
	searchLimit    int
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search for medical terms from the command line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, svc, err := setup()
		if err != nil {
			return err
		}
		defer st.Close()

		results, err := svc.SearchTerms(cmd.Context(), args[0], searchOntology, searchLimit)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No results.")
			return nil
		}
		for _, r := range results {
			fmt.Printf("%s\t%s\t%s\n", r.CUI, r.Code, r.Term)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchOntology, "ontology", "o", "", "Source vocabulary to search (default from config)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum number of results")
}
