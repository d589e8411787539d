package cmd

import (
	"fmt"
	"strings"

	"eventhorizon/config"
	"eventhorizon/internal/catalog"
	"eventhorizon/models"
	"eventhorizon/monitoring"

	"github.com/spf13/cobra"
)

func newCatalogCmd(cfg *config.Config) *cobra.Command {
	var category string

	command := &cobra.Command{
		Use:   "catalog",
		Short: "Print the event catalog",
		RunE: func(command *cobra.Command, args []string) error {
			seed, err := loadSeed(cfg)
			if err != nil {
				return err
			}
			cat, err := catalog.New(seed.Events)
			if err != nil {
				return err
			}

			out := command.OutOrStdout()
			for _, ev := range cat.Filter("", models.EventCategory(category)) {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\ta partir de R$%s\n",
					ev.ID, ev.Title, ev.Category, ev.Date.Format("02/01/2006"), catalog.MinPrice(ev).StringFixed(2))
			}
			return nil
		},
	}
	command.Flags().StringVar(&category, "category", "", "only list events of this category")
	return command
}

func newRecommendCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend <query>",
		Short: "Ask the event concierge for a recommendation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			seed, err := loadSeed(cfg)
			if err != nil {
				return err
			}
			cat, err := catalog.New(seed.Events)
			if err != nil {
				return err
			}

			bridge := newBridge(cfg, cat, nil, monitoring.NewMonitor(nil))
			reply, err := bridge.Ask(command.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(command.OutOrStdout(), reply)
			return nil
		},
	}
}

// withDefaultHTTP adds --http=addr to a serve invocation that does not set
// its own address.
func withDefaultHTTP(args []string, addr string) []string {
	serveAt := -1
	for i, arg := range args {
		if arg == "--http" || strings.HasPrefix(arg, "--http=") {
			return args
		}
		if arg == "serve" && serveAt < 0 {
			serveAt = i
		}
	}
	if serveAt < 0 {
		return args
	}

	out := make([]string, 0, len(args)+1)
	out = append(out, args[:serveAt+1]...)
	out = append(out, "--http="+addr)
	return append(out, args[serveAt+1:]...)
}
