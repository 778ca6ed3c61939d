package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/civicteam/mandat/pkg/api"
	"github.com/civicteam/mandat/pkg/district"
	"github.com/civicteam/mandat/pkg/geocode"
	"github.com/civicteam/mandat/pkg/resolve"
	"github.com/civicteam/mandat/pkg/roster"
	"github.com/civicteam/mandat/pkg/sejm"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "mandat",
		Short: "Polish electoral district and MP voting-record toolkit",
		Long: `Mandat resolves Polish postal codes to Sejm electoral districts and
aggregates voting records of the representatives elected there.

It combines three public data sources:
  - OpenStreetMap Nominatim for postal-code geocoding
  - The official electoral district table for district membership
  - The Sejm REST API for the roster and per-sitting voting data`,
		Version: version,
	}

	rootCmd.AddCommand(districtCmd())
	rootCmd.AddCommand(mpsCmd())
	rootCmd.AddCommand(votesCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newResolver wires the district table, the geocoder, and the
// resolver together.
func newResolver() (*resolve.Resolver, error) {
	set, err := district.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build district table: %w", err)
	}
	geocoder := geocode.NewClient(geocode.DefaultConfig())
	return resolve.New(geocoder, set), nil
}

func districtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "district [postal-code]",
		Short: "Resolve a postal code to its Sejm electoral district",
		Long: `Resolve a Polish postal code to its Sejm electoral district number.

Accepts both NN-NNN and bare NNNNN forms.

Example:
  mandat district 50-540
  mandat district 00001`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := newResolver()
			if err != nil {
				return err
			}

			number, err := resolver.ResolveDistrict(cmd.Context(), args[0])
			if errors.Is(err, resolve.ErrNoMatch) {
				return fmt.Errorf("no district found for postal code %s", args[0])
			}
			if err != nil {
				return fmt.Errorf("resolution failed: %w", err)
			}

			fmt.Printf("Postal code %s is in electoral district %d\n", args[0], number)
			return nil
		},
	}
}

func mpsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mps",
		Short: "List representatives of the current term",
		Long: `List the representatives of the configured parliamentary term,
sorted by surname with Polish collation.

Examples:
  mandat mps
  mandat mps --district 19
  mandat mps --name "kowalski"
  mandat mps --district 19 --name jan`,
		RunE: func(cmd *cobra.Command, args []string) error {
			districtNumber, _ := cmd.Flags().GetInt("district")
			nameQuery, _ := cmd.Flags().GetString("name")
			term, _ := cmd.Flags().GetInt("term")

			client := sejm.NewClient(sejm.Config{Term: term})
			mps, err := roster.FetchRoster(cmd.Context(), client)
			if err != nil {
				return fmt.Errorf("failed to fetch roster: %w", err)
			}
			filtered := roster.Filter(mps, districtNumber, nameQuery)
			if len(filtered) == 0 {
				fmt.Println("No representatives match.")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tNAME\tCLUB\tDISTRICT")
			for _, mp := range filtered {
				fmt.Fprintf(writer, "%d\t%s %s\t%s\t%d\n",
					mp.ID, mp.LastName, mp.FirstName, mp.ClubOrIndependent(), mp.DistrictNumber)
			}
			return writer.Flush()
		},
	}

	cmd.Flags().IntP("district", "d", 0, "Only representatives of this electoral district")
	cmd.Flags().StringP("name", "n", "", "Diacritic-insensitive name filter")
	cmd.Flags().Int("term", sejm.DefaultTerm, "Parliamentary term")

	return cmd
}

func votesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "votes [mp-id]",
		Short: "Show a representative's recent votes",
		Long: `Show a representative's voting record, newest first.

The initial window covers the last 90 days of sittings; each --more
widens it by 90 days, up to 400.

Examples:
  mandat votes 123
  mandat votes 123 --more 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			more, _ := cmd.Flags().GetInt("more")
			term, _ := cmd.Flags().GetInt("term")

			var mpID int
			if _, err := fmt.Sscanf(args[0], "%d", &mpID); err != nil {
				return fmt.Errorf("representative id must be a number: %s", args[0])
			}

			client := sejm.NewClient(sejm.Config{Term: term})
			aggregator := roster.NewAggregator(roster.AggregatorConfig{
				Source:   client,
				Calendar: sejm.NewCalendar(client),
				Logger:   log.New(os.Stderr, "", 0),
			})

			votes, err := aggregator.LoadVotes(cmd.Context(), mpID)
			if err != nil {
				return fmt.Errorf("failed to load votes: %w", err)
			}
			for i := 0; i < more; i++ {
				if votes, err = aggregator.LoadMore(cmd.Context(), mpID); err != nil {
					return fmt.Errorf("failed to load more votes: %w", err)
				}
			}

			state := aggregator.State(mpID)
			if len(votes) == 0 {
				fmt.Printf("No votes in the last %d days.\n", state.WindowDays)
				return nil
			}

			fmt.Printf("Votes for MP %d over the last %d days:\n\n", mpID, state.WindowDays)
			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "DATE\tSITTING\tNO.\tVOTE\tTOPIC")
			for _, vote := range votes {
				fmt.Fprintf(writer, "%s\t%d\t%d\t%s\t%s\n",
					vote.Date.Format("2006-01-02"), vote.Sitting, vote.VotingNumber,
					vote.Vote.Label(), vote.Topic)
			}
			return writer.Flush()
		},
	}

	cmd.Flags().Int("more", 0, "Widen the history window this many extra times")
	cmd.Flags().Int("term", sejm.DefaultTerm, "Parliamentary term")

	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolver and roster over HTTP",
		Long: `Serve the district resolver and roster as a JSON HTTP API.

Routes:
  GET  /district/{postalCode}
  GET  /mps?district=N&name=q
  GET  /mps/{id}/votes
  POST /mps/{id}/votes/more
  POST /refresh

Example:
  mandat serve --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			term, _ := cmd.Flags().GetInt("term")

			resolver, err := newResolver()
			if err != nil {
				return err
			}
			client := sejm.NewClient(sejm.Config{Term: term})
			logger := log.New(os.Stderr, "mandat ", log.LstdFlags)
			aggregator := roster.NewAggregator(roster.AggregatorConfig{
				Source:   client,
				Calendar: sejm.NewCalendar(client),
				Logger:   logger,
			})
			handler := api.NewHandler(resolver, client, aggregator, client, logger)

			server := api.NewServer(addr, handler)
			logger.Printf("listening on %s", addr)
			return server.ListenAndServe()
		},
	}

	cmd.Flags().String("addr", ":8080", "Listen address")
	cmd.Flags().Int("term", sejm.DefaultTerm, "Parliamentary term")

	return cmd
}
