package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFieldsCmd(g *globalOptions) *cobra.Command {
	var keysOnly bool
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List the carrier fields in output order",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.env()
			if err != nil {
				return err
			}
			if keysOnly {
				for _, key := range env.Catalog.Keys() {
					fmt.Fprintln(cmd.OutOrStdout(), key)
				}
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tKEY\tCOLUMN\tREQUIRED\tOPTIONS")
			for i, f := range env.Catalog.Fields() {
				codes := make([]string, len(f.Options))
				for j, o := range f.Options {
					codes[j] = o.Code
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, f.Key, f.ExternalName, f.Required, strings.Join(codes, ","))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&keysOnly, "keys", false, "print only the field keys")
	return cmd
}

func newCountriesCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List the country profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.env()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tPOSTAL CODE\tSTATE REQUIRED\tUNITS")
			for _, p := range env.Profiles.Profiles() {
				marker := ""
				if p.CountryCode == env.HomeCountry {
					marker = " (home)"
				}
				fmt.Fprintf(tw, "%s%s\t%s\t%t\t%s/%s\n", p.CountryCode, marker, p.PostalCodePattern, p.StateRequired, p.DefaultWeightUnit, p.DefaultDimensionUnit)
			}
			return tw.Flush()
		},
	}
}
