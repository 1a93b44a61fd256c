package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"text/tabwriter"

	"aetheria-site/internal/model"
	"aetheria-site/internal/pages"
	"aetheria-site/internal/server"
	"aetheria-site/internal/slug"
	"aetheria-site/internal/storage"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// siteExport is the full dump written by the export command.
type siteExport struct {
	Content  model.SiteContent  `json:"pageData" yaml:"pageData"`
	Products []model.Product    `json:"products" yaml:"products"`
	Pages    []model.CustomPage `json:"customPages" yaml:"customPages"`
}

func newServeCmd(a *app) *cobra.Command {
	var port int
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the site server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			if cmd.Flags().Changed("watch") {
				a.cfg.Server.WatchData = watch
			}
			srv, err := server.New(a.cfg, a.store, a.logger)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to serve the site on")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload data when files in the data directory change")
	return cmd
}

func newContentCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Print the stored site content",
		RunE: func(cmd *cobra.Command, args []string) error {
			return encode(cmd.OutOrStdout(), format, a.contentStore().Get())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	return cmd
}

func newProductsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the product catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tIMAGE")
			for _, p := range a.catalog().List() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.ImageURL)
			}
			return tw.Flush()
		},
	}
}

func newPagesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Work with custom pages",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List custom pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			list := a.registry().List()
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No custom pages found.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSLUG\tTITLE")
			for _, p := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Slug, p.Title)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if err := pages.CheckSlugs(list); err != nil {
				fmt.Fprintf(out, "Warning: %v\n", err)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "resolve <slug>",
		Short: "Show the page a slug resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.registry().Resolve(args[0])
			if err != nil {
				return err
			}
			return encode(cmd.OutOrStdout(), "json", page)
		},
	})
	return cmd
}

func newSlugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slug <title>...",
		Short: "Print the slug derived from a page title",
		Args:  cobra.MinimumNArgs(1),
		// Pure function of its input; no config or storage needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), slug.Derive(strings.Join(args, " ")))
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var format, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump content, products and pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			dump := siteExport{
				Content:  a.contentStore().Get(),
				Products: a.catalog().List(),
				Pages:    a.registry().List(),
			}
			if outPath == "" {
				return encode(cmd.OutOrStdout(), format, dump)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outPath, err)
			}
			if err := encode(f, format, dump); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported site data to %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

func newResetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the stored records so the defaults are seeded again",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirmAction(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("Reset all site data in %s to defaults?", a.store.GetBasePath())) {
				fmt.Fprintln(cmd.OutOrStdout(), "Reset cancelled.")
				return nil
			}
			for _, key := range storage.DurableKeys() {
				if err := a.store.Delete(key); err != nil {
					return fmt.Errorf("failed to delete %s: %w", key, err)
				}
			}
			// Loading seeds the defaults back.
			a.contentStore().Load()
			a.catalog().Load()
			a.registry().Load()
			fmt.Fprintln(cmd.OutOrStdout(), "Site data reset to defaults.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open [slug]",
		Short: "Open the running site, or one custom page, in the browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("http://localhost:%d/", a.cfg.Server.Port)
			if len(args) == 1 {
				if _, err := a.registry().Resolve(args[0]); err != nil {
					return err
				}
				url += "pages/" + args[0]
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opening %s\n", url)
			return openBrowser(url)
		},
	}
}

func encode(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q, expected json or yaml", format)
}

// confirmAction asks a yes/no question, defaulting to no.
func confirmAction(in io.Reader, out io.Writer, prompt string) bool {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		response, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false
		}
		response = strings.ToLower(strings.TrimSpace(response))
		switch response {
		case "y", "yes":
			return true
		case "n", "no", "":
			return false
		}
		if errors.Is(err, io.EOF) {
			return false
		}
		fmt.Fprintln(out, "Please answer 'y' or 'n'.")
	}
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

