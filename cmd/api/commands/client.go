package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/motelhub/directory/internal/client"
	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/infrastructure/config"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

// remote bundles what the client commands need
type remote struct {
	dir *client.Directory
}

func newRemote(cmd *cobra.Command) (*remote, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if u, _ := cmd.Flags().GetString("api-url"); u != "" {
		cfg.Client.BaseURL = u
	}
	if p, _ := cmd.Flags().GetString("mirror"); p != "" {
		cfg.Client.MirrorPath = p
	}

	log, err := logger.New(config.LoggerConfig{Level: "warn", Format: "console", Output: "stderr"})
	if err != nil {
		return nil, err
	}

	api := client.New(cfg.Client.BaseURL,
		client.WithHTTPClient(&http.Client{Timeout: cfg.Client.Timeout}),
		client.WithLogger(log),
	)
	mirror, err := client.OpenMirror(cfg.Client.MirrorPath)
	if err != nil {
		return nil, err
	}
	return &remote{dir: client.NewDirectory(api, mirror, log)}, nil
}

// login authenticates when credentials were given on the command line
func (r *remote) login(cmd *cobra.Command) error {
	username, _ := cmd.Flags().GetString("username")
	if username == "" {
		return nil
	}
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		var err error
		if password, err = readPassword("Password for " + username + ": "); err != nil {
			return err
		}
	}
	_, err := r.dir.API().Login(cmd.Context(), username, password)
	return err
}

// NewVenuesCommand creates the venue commands that talk to a running server
func NewVenuesCommand() *cobra.Command {
	venuesCmd := &cobra.Command{
		Use:   "venues",
		Short: "Browse and manage venues through the API",
	}
	venuesCmd.PersistentFlags().String("username", "", "Administrator to log in as for write commands")
	venuesCmd.PersistentFlags().String("password", "", "Password, prompted for when omitted")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List venues, from the local mirror when the server is unreachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRemote(cmd)
			if err != nil {
				return err
			}
			filter, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}
			res, err := r.dir.ListVenues(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if res.Stale {
				fmt.Fprintln(cmd.ErrOrStderr(), "server unreachable, showing the local mirror")
			}
			if res.Pending > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d local changes waiting for sync\n", res.Pending)
			}
			return printVenues(cmd, res.Data)
		},
	}
	listCmd.Flags().String("search", "", "Text to look for in names, descriptions and locations")
	listCmd.Flags().String("min-price", "", "Lowest acceptable starting price")
	listCmd.Flags().String("max-price", "", "Highest acceptable starting price")
	listCmd.Flags().StringSlice("amenity", nil, "Required amenity, repeatable")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Download every venue as CSV or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRemote(cmd)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			template, _ := cmd.Flags().GetBool("template")

			var file *ports.ExportFile
			if template {
				file, err = r.dir.API().Template(cmd.Context(), ports.TableFormat(format))
			} else {
				file, err = r.dir.API().Export(cmd.Context(), ports.TableFormat(format))
			}
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = file.Filename
			}
			if err := os.WriteFile(out, file.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", out, len(file.Data))
			return nil
		},
	}
	exportCmd.Flags().String("format", "csv", "csv or xlsx")
	exportCmd.Flags().String("out", "", "Output file, defaults to the name sent by the server")
	exportCmd.Flags().Bool("template", false, "Download the empty import template instead")

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Upload a CSV or XLSX file, merging venues by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRemote(cmd)
			if err != nil {
				return err
			}
			if err := r.login(cmd); err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			result, err := r.dir.API().Import(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported: %d created, %d updated, %d skipped\n", result.Created, result.Updated, result.Skipped)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a venue, queued locally when the server is unreachable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid venue id %q", args[0])
			}
			r, err := newRemote(cmd)
			if err != nil {
				return err
			}
			if err := r.login(cmd); err != nil && !client.IsNetworkError(err) {
				return err
			}
			err = r.dir.DeleteVenue(cmd.Context(), id)
			switch {
			case errors.Is(err, client.ErrQueuedOffline):
				fmt.Fprintln(cmd.OutOrStdout(), "Server unreachable, delete queued; run sync later")
				return nil
			case err != nil:
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Venue %d deleted\n", id)
			return nil
		},
	}

	venuesCmd.AddCommand(listCmd, exportCmd, importCmd, deleteCmd)
	return venuesCmd
}

// NewSyncCommand replays changes queued while the server was unreachable
func NewSyncCommand() *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Send queued offline changes to the server and refresh the mirror",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRemote(cmd)
			if err != nil {
				return err
			}
			if err := r.login(cmd); err != nil {
				return err
			}
			report, err := r.dir.Sync(cmd.Context())
			if report != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(report); encErr != nil {
					return encErr
				}
			}
			return err
		},
	}
	syncCmd.Flags().String("username", "", "Administrator to log in as")
	syncCmd.Flags().String("password", "", "Password, prompted for when omitted")
	return syncCmd
}

func filterFromFlags(cmd *cobra.Command) (entities.VenueFilter, error) {
	search, _ := cmd.Flags().GetString("search")
	amenities, _ := cmd.Flags().GetStringSlice("amenity")
	filter := entities.VenueFilter{Search: search, Amenities: amenities}

	for _, p := range []struct {
		flag string
		dst  **float64
	}{{"min-price", &filter.MinPrice}, {"max-price", &filter.MaxPrice}} {
		s, _ := cmd.Flags().GetString(p.flag)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return filter, fmt.Errorf("--%s must be a number", p.flag)
		}
		*p.dst = &v
	}
	return filter, nil
}

func printVenues(cmd *cobra.Command, venues []entities.Venue) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLOCATION\tROOMS\tFROM")
	for i := range venues {
		v := &venues[i]
		from := "-"
		if p, ok := v.LowestPrice(); ok {
			from = strconv.FormatFloat(p, 'f', 2, 64)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", v.ID, v.Name, strings.TrimSpace(v.Location), len(v.Rooms), from)
	}
	return w.Flush()
}

