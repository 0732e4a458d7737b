package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Toomas633/Adlist-Parser/internal/fetcher"
	"github.com/Toomas633/Adlist-Parser/internal/pipeline"
	"github.com/Toomas633/Adlist-Parser/internal/redundancy"
	"github.com/Toomas633/Adlist-Parser/internal/sources"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "adlist-parser",
	Short: "Aggregate DNS blocklists into a deduplicated blocklist and allowlist",
	Long: `A tool that fetches blocklists in heterogeneous formats (hosts files,
plain domains, ABP filters, Pi-hole regexes), normalizes every line into a
stable vocabulary, and writes a sorted blocklist and allowlist.`,
}

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Fetch all sources and regenerate the output files",
	RunE:  runParse,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources",
	RunE:  runSources,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default source-list files",
	RunE:  runInit,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("adlists", "", "adlist sources file (default: ./data/adlists.json)")
	rootCmd.PersistentFlags().String("whitelists", "", "whitelist sources file (default: ./data/whitelists.json)")

	parseCmd.Flags().String("adlist-output", "", "blocklist output path (default: ./output/adlist.txt)")
	parseCmd.Flags().String("whitelist-output", "", "allowlist output path (default: ./output/whitelist.txt)")
	parseCmd.Flags().Duration("timeout", 0, "per-request HTTP timeout")
	parseCmd.Flags().Bool("redundancy", false, "analyze sources for duplicate and redundant content")
	parseCmd.Flags().Bool("progress", false, "print fetch progress")

	_ = viper.BindPFlag("adlists", rootCmd.PersistentFlags().Lookup("adlists"))
	_ = viper.BindPFlag("whitelists", rootCmd.PersistentFlags().Lookup("whitelists"))
	_ = viper.BindPFlag("adlist_output", parseCmd.Flags().Lookup("adlist-output"))
	_ = viper.BindPFlag("whitelist_output", parseCmd.Flags().Lookup("whitelist-output"))
	_ = viper.BindPFlag("http.timeout", parseCmd.Flags().Lookup("timeout"))

	rootCmd.AddCommand(parseCmd, sourcesCmd, initCmd)
}

func initConfig() {
	viper.SetDefault("adlists", "data/adlists.json")
	viper.SetDefault("whitelists", "data/whitelists.json")
	viper.SetDefault("adlist_output", "output/adlist.txt")
	viper.SetDefault("whitelist_output", "output/whitelist.txt")
	viper.SetDefault("http.timeout", "30s")
}

func runParse(cmd *cobra.Command, args []string) error {
	start := time.Now()

	blockSources, err := sources.Load(viper.GetString("adlists"))
	if err != nil {
		return err
	}
	allowSources, err := sources.Load(viper.GetString("whitelists"))
	if err != nil {
		return err
	}

	cfg := pipeline.Config{
		BlockSources: blockSources,
		AllowSources: allowSources,
		BlockOutput:  viper.GetString("adlist_output"),
		AllowOutput:  viper.GetString("whitelist_output"),
	}

	if ok, _ := cmd.Flags().GetBool("progress"); ok {
		cfg.BlockProgress = func(completed, total int) {
			fmt.Printf("adlist sources: %d/%d\n", completed, total)
		}
		cfg.AllowProgress = func(completed, total int) {
			fmt.Printf("whitelist sources: %d/%d\n", completed, total)
		}
	}

	f := fetcher.New(fetcher.Config{Timeout: viper.GetDuration("http.timeout")})
	block, allow := pipeline.New(f).Run(context.Background(), cfg)

	fmt.Printf("Completed in %.2fs\n\n", time.Since(start).Seconds())
	printResult("Adlist", cfg.BlockOutput, block)
	printResult("Whitelist", cfg.AllowOutput, allow)

	if ok, _ := cmd.Flags().GetBool("redundancy"); ok {
		printAnalysis("Adlist", redundancy.Analyze(block.Fetched, cfg.BlockOutput))
		printAnalysis("Whitelist", redundancy.Analyze(allow.Fetched, cfg.AllowOutput))
	}

	return errors.Join(block.Err, allow.Err)
}

func printResult(label, path string, res pipeline.Result) {
	fmt.Printf("%s: %d sources -> %d entries (%d domains, %d ABP rules)\n",
		label, res.Sources, res.Entries, res.Domains, res.ABPRules)
	for _, src := range res.Failed {
		fmt.Printf("  unavailable: %s\n", src.Raw)
	}
	fmt.Printf("  written to %s\n", path)
}

func printAnalysis(label string, a redundancy.Analysis) {
	if len(a.DuplicateGroups) == 0 && len(a.LocalCoverage) == 0 {
		return
	}
	fmt.Printf("\n%s redundancy:\n", label)
	for _, grp := range a.DuplicateGroups {
		fmt.Printf("  identical content: %v\n", grp)
	}
	for src, cov := range a.LocalCoverage {
		fmt.Printf("  %s: %d/%d entries already in remote sources\n",
			src, len(cov.Covered), cov.Total)
		for _, e := range cov.Covered {
			fmt.Printf("    - %s\n", e)
		}
	}
}

func runSources(cmd *cobra.Command, args []string) error {
	for _, file := range []string{viper.GetString("adlists"), viper.GetString("whitelists")} {
		srcs, err := sources.Load(file)
		if err != nil {
			return err
		}
		fmt.Printf("%s:\n", file)
		for _, src := range srcs {
			kind := "file"
			if src.IsRemote() {
				kind = "url"
			}
			fmt.Printf("  [%s] %s\n", kind, src.Raw)
		}
		fmt.Println()
	}
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	defaults := map[string]string{
		viper.GetString("adlists"): `{
  "lists": [
    "https://raw.githubusercontent.com/StevenBlack/hosts/master/hosts",
    "https://big.oisd.nl/domainswild"
  ]
}
`,
		viper.GetString("whitelists"): `{
  "lists": []
}
`,
	}

	for path, content := range defaults {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("source file already exists: %s", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", path)
	}
	return nil
}
