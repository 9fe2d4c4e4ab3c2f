// Package main implements routerctl, an administrative CLI for inspecting
// and mutating a registry seeded from a TOML config file. Each invocation
// loads the file's [[service]] tables into a fresh in-process registry,
// applies the requested mutation, and reports the result — a stand-in for
// talking to a running router instance until an RPC control plane exists.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aftahi334/alpha-smart-router/internal/config"
	"github.com/aftahi334/alpha-smart-router/internal/routing/pop"
	"github.com/aftahi334/alpha-smart-router/internal/routing/registry"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:          "routerctl",
		Short:        "Administrative CLI for the alpha-smart-router service registry",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "router.toml", "path to the router TOML config")

	root.AddCommand(newListCmd())
	root.AddCommand(newSnapshotCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newUpsertCmd())
	root.AddCommand(newRemoveCmd())
	root.AddCommand(newDumpConfigCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadRegistry() (*registry.Registry, error) {
	rc, err := config.LoadFromFile(configFile)
	if err != nil {
		return nil, err
	}
	reg := registry.New()
	for _, svc := range rc.Bootstrap {
		if errCode := reg.AddService(svc.ID, svc.PopList()); errCode != registry.Ok {
			return nil, fmt.Errorf("seed %s: %s", svc.ID, errCode)
		}
	}
	return reg, nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered service IDs",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			for _, id := range reg.ListServices() {
				fmt.Println(id)
			}
			return nil
		},
	}
}

func newSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot [serviceID]",
		Short: "Print the PoP list for a service, or the whole registry if omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				printPops(args[0], reg.GetPopsCopy(args[0]))
				return nil
			}
			for _, id := range reg.ListServices() {
				printPops(id, reg.GetPopsCopy(id))
			}
			return nil
		},
	}
}

func printPops(serviceID string, pops pop.List) {
	fmt.Printf("%s:\n", serviceID)
	for _, p := range pops {
		fmt.Printf("  %s region=%s ip=%s weight=%d health=%s\n", p.ID, p.Region, p.IP, p.Weight, p.Health)
	}
}

func newAddCmd() *cobra.Command {
	var region, ip string
	var weight uint16
	cmd := &cobra.Command{
		Use:   "add <serviceID> <popID>",
		Short: "Add a service with a single initial PoP, failing if it already exists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			pops := pop.List{{ID: args[1], Region: region, IP: ip, Weight: weight, Health: pop.Up}}
			if errCode := reg.AddService(args[0], pops); errCode != registry.Ok {
				return fmt.Errorf("add %s: %s", args[0], errCode)
			}
			fmt.Printf("added %s (against the loaded snapshot; edit %s to persist)\n", args[0], configFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "PoP region")
	cmd.Flags().StringVar(&ip, "ip", "", "PoP IP address")
	cmd.Flags().Uint16Var(&weight, "weight", 100, "PoP weight")
	return cmd
}

func newUpsertCmd() *cobra.Command {
	var region, ip string
	var weight uint16
	cmd := &cobra.Command{
		Use:   "upsert <serviceID> <popID>",
		Short: "Insert or overwrite a service with a single PoP",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			pops := pop.List{{ID: args[1], Region: region, IP: ip, Weight: weight, Health: pop.Up}}
			if errCode := reg.UpsertService(args[0], pops); errCode != registry.Ok {
				return fmt.Errorf("upsert %s: %s", args[0], errCode)
			}
			fmt.Printf("upserted %s (against the loaded snapshot; edit %s to persist)\n", args[0], configFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "PoP region")
	cmd.Flags().StringVar(&ip, "ip", "", "PoP IP address")
	cmd.Flags().Uint16Var(&weight, "weight", 100, "PoP weight")
	return cmd
}

func newDumpConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump-config",
		Short: "Print the fully resolved QoS/failover/ingress config as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := config.LoadFromFile(configFile)
			if err != nil {
				return err
			}
			out, err := rc.DumpJSON()
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <serviceID>",
		Short: "Remove a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			if !reg.RemoveService(args[0]) {
				return fmt.Errorf("remove %s: not found", args[0])
			}
			fmt.Printf("removed %s (against the loaded snapshot; edit %s to persist)\n", args[0], configFile)
			return nil
		},
	}
}
