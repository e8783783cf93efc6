package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/vitomein/loadintel/exportbridge/internal/grants"
)

var grantsOutput string

var grantsCmd = &cobra.Command{
	Use:   "grants",
	Short: "Manage persisted directory grants",
}

var grantsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted grants",
	Args:  cobra.NoArgs,
	RunE:  runGrantsList,
}

var grantsReleaseCmd = &cobra.Command{
	Use:   "release <tree-uri>",
	Short: "Revoke a persisted grant",
	Args:  cobra.ExactArgs(1),
	RunE:  runGrantsRelease,
}

func init() {
	grantsListCmd.Flags().StringVarP(&grantsOutput, "output", "o", "table", "Output format (table or yaml)")
	grantsCmd.AddCommand(grantsListCmd)
	grantsCmd.AddCommand(grantsReleaseCmd)
	rootCmd.AddCommand(grantsCmd)
}

// grantView is the printable form of a grant
type grantView struct {
	URI       string `yaml:"uri"`
	Access    string `yaml:"access"`
	GrantedAt string `yaml:"granted_at"`
}

func toViews(list []grants.Grant) []grantView {
	views := make([]grantView, 0, len(list))
	for _, g := range list {
		views = append(views, grantView{
			URI:       g.URI,
			Access:    g.Access.String(),
			GrantedAt: g.GrantedAt.UTC().Format(time.RFC3339),
		})
	}
	return views
}

func renderGrants(w io.Writer, list []grants.Grant, format string) error {
	views := toViews(list)
	switch format {
	case "yaml":
		out, err := yaml.Marshal(views)
		if err != nil {
			return fmt.Errorf("failed to encode grants: %w", err)
		}
		_, err = w.Write(out)
		return err
	case "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "URI\tACCESS\tGRANTED")
		for _, v := range views {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", v.URI, v.Access, v.GrantedAt)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func runGrantsList(cmd *cobra.Command, args []string) error {
	c, err := openComponents(nil)
	if err != nil {
		return err
	}
	defer c.Close()

	list, err := c.Grants.List()
	if err != nil {
		return err
	}
	if len(list) == 0 && grantsOutput == "table" {
		newUI(cmd.ErrOrStderr()).Infof("No grants")
		return nil
	}
	return renderGrants(cmd.OutOrStdout(), list, grantsOutput)
}

func runGrantsRelease(cmd *cobra.Command, args []string) error {
	c, err := openComponents(nil)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Grants.Release(args[0]); err != nil {
		return err
	}
	newUI(cmd.ErrOrStderr()).Successf("Released %s", args[0])
	return nil
}
