package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"mineardmg/internal/manifest"
)

func newVersionsCommand(ctx *commandContext) *cobra.Command {
	var snapshots bool
	var limit int

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List game versions available for building",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := manifest.New(cfg.Network.ManifestURL,
				manifest.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Network.RequestTimeout) * time.Second}),
				manifest.WithUserAgent(cfg.Network.UserAgent),
			)
			if err != nil {
				return err
			}
			list, err := client.Versions(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch version list: %w", err)
			}

			versions := list.Filter(snapshots)
			if limit > 0 && len(versions) > limit {
				versions = versions[:limit]
			}
			rows := make([][]string, 0, len(versions))
			for _, v := range versions {
				rows = append(rows, []string{v.ID, v.Type, releaseDate(v.ReleaseTime), latestMarker(list.Latest, v.ID)})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Version", "Type", "Released", "Latest"}, rows, nil))
			fmt.Fprintf(out, "Latest release: %s, latest snapshot: %s\n", list.Latest.Release, list.Latest.Snapshot)
			return nil
		},
	}

	cmd.Flags().BoolVar(&snapshots, "snapshots", false, "Include snapshot versions")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum versions to list (0 for all)")
	return cmd
}

func releaseDate(value string) string {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.Format(time.DateOnly)
	}
	return value
}

func latestMarker(latest manifest.Latest, id string) string {
	switch id {
	case latest.Release:
		return "release"
	case latest.Snapshot:
		return "snapshot"
	}
	return ""
}
