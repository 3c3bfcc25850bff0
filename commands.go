package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	circulation "utility-billing/internal/circulation/domain"
	"utility-billing/internal/formula"
	"utility-billing/internal/invoicing/interfaces"
	"utility-billing/internal/observability/metrics"
	tariff "utility-billing/internal/tariff/domain"
)

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD", value)
	}
	return t, nil
}

func parseMonth(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("month %q must be YYYY-MM", value)
	}
	return t, nil
}

func newInvoiceCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "invoice", Short: "Generate, finalize and export invoices"}

	var renterID, from, to string
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate a draft invoice for a renter",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			start, err := parseDate(from, a.cfg.Location())
			if err != nil {
				return err
			}
			end, err := parseDate(to, a.cfg.Location())
			if err != nil {
				return err
			}
			inv, err := a.generator.GenerateInvoice(cmd.Context(), renterID, start, end)
			if err != nil {
				return err
			}
			return printJSON(cmd, inv)
		},
	}
	generate.Flags().StringVar(&renterID, "renter", "", "renter id")
	generate.Flags().StringVar(&from, "from", "", "period start (YYYY-MM-DD)")
	generate.Flags().StringVar(&to, "to", "", "period end (YYYY-MM-DD)")
	_ = generate.MarkFlagRequired("renter")
	_ = generate.MarkFlagRequired("from")
	_ = generate.MarkFlagRequired("to")

	finalize := &cobra.Command{
		Use:   "finalize <invoice-id>",
		Short: "Finalize a draft invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			inv, err := a.invoices.Finalize(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"id":            inv.ID,
				"status":        inv.Status,
				"snapshot_hash": inv.SnapshotHash,
				"finalized_at":  inv.FinalizedAt,
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <invoice-id>",
		Short: "Print an invoice with items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			inv, err := a.invoices.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, struct {
				Invoice any `json:"invoice"`
				Items   any `json:"items"`
			}{inv, inv.Items})
		},
	}

	verify := &cobra.Command{
		Use:   "verify <invoice-id>",
		Short: "Check a finalized invoice against its snapshot hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			ok, err := a.invoices.Verify(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := printJSON(cmd, map[string]any{"id": args[0], "snapshot_valid": ok}); err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("invoice %s does not match its snapshot hash", args[0])
			}
			return nil
		},
	}

	var format, out string
	export := &cobra.Command{
		Use:   "export <invoice-id>",
		Short: "Render an invoice as PDF or XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			start := time.Now()
			result := metrics.ResultSuccess
			defer func() {
				metrics.ObserveInvoiceExport(format, result, time.Since(start))
			}()

			inv, err := a.invoices.Get(cmd.Context(), args[0])
			if err != nil {
				result = metrics.ResultError
				return err
			}
			data, err := interfaces.Export(inv, format)
			if err != nil {
				result = metrics.ResultError
				return err
			}
			if out == "" {
				out = inv.ID + "." + format
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				result = metrics.ResultError
				return err
			}
			a.logger.Info("invoice exported", zap.String("invoice_id", inv.ID), zap.String("format", format), zap.String("path", out))
			return nil
		},
	}
	export.Flags().StringVar(&format, "format", interfaces.FormatPDF, "pdf or xlsx")
	export.Flags().StringVarP(&out, "out", "o", "", "output path (defaults to <id>.<format>)")

	cmd.AddCommand(generate, finalize, show, verify, export)
	return cmd
}

func newGyvatukasCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "gyvatukas", Short: "Circulation heat-loss calculations"}

	var buildingID, month, calcType string
	calculate := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate circulation energy of a building for a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			m, err := parseMonth(month, a.cfg.Location())
			if err != nil {
				return err
			}
			building, err := a.properties.GetBuilding(cmd.Context(), buildingID)
			if err != nil {
				return err
			}
			var energy float64
			switch circulation.CalculationType(calcType) {
			case circulation.Summer:
				energy, err = a.circulation.CalculateSummer(cmd.Context(), building, m)
			case circulation.Winter:
				energy, err = a.circulation.CalculateWinter(cmd.Context(), building, m)
			case "":
				energy, err = a.circulation.Calculate(cmd.Context(), building, m)
			default:
				return fmt.Errorf("unknown calculation type %q", calcType)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"building_id":     building.ID,
				"month":           m.Format("2006-01"),
				"heating_season":  a.calculator.IsHeatingSeason(m),
				"circulation_kwh": energy,
			})
		},
	}
	calculate.Flags().StringVar(&buildingID, "building", "", "building id")
	calculate.Flags().StringVar(&month, "month", "", "month (YYYY-MM)")
	calculate.Flags().StringVar(&calcType, "type", "", "summer or winter (default: by season)")
	_ = calculate.MarkFlagRequired("building")
	_ = calculate.MarkFlagRequired("month")

	var distBuilding, method string
	var cost float64
	distribute := &cobra.Command{
		Use:   "distribute",
		Short: "Split a building cost between its properties",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			building, err := a.properties.GetBuilding(cmd.Context(), distBuilding)
			if err != nil {
				return err
			}
			if method == "" {
				method = a.cfg.Gyvatukas.DefaultDistributionMethod
			}
			shares, err := a.circulation.Distribute(cmd.Context(), building, cost, circulation.DistributionMethod(method))
			if err != nil {
				return err
			}
			return printJSON(cmd, shares)
		},
	}
	distribute.Flags().StringVar(&distBuilding, "building", "", "building id")
	distribute.Flags().Float64Var(&cost, "cost", 0, "total cost to distribute")
	distribute.Flags().StringVar(&method, "method", "", "equal or area")
	_ = distribute.MarkFlagRequired("building")

	var avgBuilding, asOf string
	summerAverage := &cobra.Command{
		Use:   "summer-average",
		Short: "Recalculate and store the summer average of a building",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			now := time.Now().In(a.cfg.Location())
			if asOf != "" {
				if now, err = parseDate(asOf, a.cfg.Location()); err != nil {
					return err
				}
			}
			building, err := a.properties.GetBuilding(cmd.Context(), avgBuilding)
			if err != nil {
				return err
			}
			average, err := a.summerAvg.Recalculate(cmd.Context(), building, now)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"building_id": building.ID, "summer_average_kwh": average})
		},
	}
	summerAverage.Flags().StringVar(&avgBuilding, "building", "", "building id")
	summerAverage.Flags().StringVar(&asOf, "as-of", "", "reference date (YYYY-MM-DD, default today)")
	_ = summerAverage.MarkFlagRequired("building")

	var clearBuilding string
	clearCache := &cobra.Command{
		Use:   "clear-cache",
		Short: "Drop cached circulation results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if a.cached == nil {
				a.logger.Info("circulation cache disabled, nothing to clear")
				return nil
			}
			if clearBuilding != "" {
				a.cached.ClearBuildingCache(cmd.Context(), clearBuilding)
				return nil
			}
			a.cached.ClearAllCache(cmd.Context())
			return nil
		},
	}
	clearCache.Flags().StringVar(&clearBuilding, "building", "", "only this building (default: all)")

	cmd.AddCommand(calculate, distribute, summerAverage, clearCache)
	return cmd
}

func newTariffCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "tariff", Short: "Tariff resolution and validation"}

	var providerID, at string
	var consumption float64
	cost := &cobra.Command{
		Use:   "cost",
		Short: "Price consumption with the provider's active tariff",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			when := time.Now().In(a.cfg.Location())
			if at != "" {
				if when, err = time.ParseInLocation("2006-01-02T15:04", at, a.cfg.Location()); err != nil {
					return fmt.Errorf("--at %q must be YYYY-MM-DDTHH:MM", at)
				}
			}
			t, err := a.resolver.Resolve(cmd.Context(), providerID, when)
			if err != nil {
				return err
			}
			amount, err := a.resolver.CalculateCost(t, consumption, when)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"tariff_id":   t.ID,
				"tariff_name": t.Name,
				"type":        t.Configuration.Type,
				"consumption": consumption,
				"cost":        amount,
			})
		},
	}
	cost.Flags().StringVar(&providerID, "provider", "", "provider id")
	cost.Flags().Float64Var(&consumption, "consumption", 0, "consumption to price")
	cost.Flags().StringVar(&at, "at", "", "pricing instant (YYYY-MM-DDTHH:MM, default now)")
	_ = cost.MarkFlagRequired("provider")

	validate := &cobra.Command{
		Use:   "validate <configuration.json>",
		Short: "Validate a tariff configuration document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			cfg, err := tariff.ParseConfiguration(data)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s configuration is valid\n", cfg.Type)
			return nil
		},
	}

	cmd.AddCommand(cost, validate)
	return cmd
}

func newFormulaCmd() *cobra.Command {
	var vars []string
	cmd := &cobra.Command{
		Use:   "formula <expression>",
		Short: "Evaluate a pricing formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bindings := formula.Variables{}
			for _, v := range vars {
				name, raw, ok := strings.Cut(v, "=")
				if !ok {
					return fmt.Errorf("--var %q must be name=value", v)
				}
				value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
				if err != nil {
					return fmt.Errorf("--var %q: %w", v, err)
				}
				bindings[strings.TrimSpace(name)] = value
			}
			result, err := formula.Evaluate(args[0], bindings)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(result, 'f', -1, 64))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "variable binding name=value (repeatable)")
	return cmd
}
