package main

import (
	"fmt"

	"github.com/diewo77/gersa/i18n"
	"github.com/diewo77/gersa/internal/db"
	"github.com/diewo77/gersa/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newMigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.migrate()
		},
	}
}

func newSeedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default reference rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := db.Seed(app.db.WithContext(cmd.Context())); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			app.log.Info("seed completed")
			return nil
		},
	}
}

func newAnomaliesCmd(app *App) *cobra.Command {
	var (
		structure int
		lang      string
		textfile  string
	)
	cmd := &cobra.Command{
		Use:   "anomalies",
		Short: "Report ledger consistency problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			var scope *int
			if cmd.Flags().Changed("structure") {
				scope = &structure
			}
			if lang == "" {
				lang = app.cfg.App.Lang
			}
			sum, err := app.svc.Anomalies.Summary(cmd.Context(), scope, i18n.DetectLanguage(lang))
			if err != nil {
				return err
			}
			if textfile != "" {
				if err := prometheus.WriteToTextfile(textfile, app.registry); err != nil {
					return fmt.Errorf("write textfile: %w", err)
				}
			}
			return app.print(sum)
		},
	}
	cmd.Flags().IntVar(&structure, "structure", 0, "Only check shares and movements of this structure")
	cmd.Flags().StringVar(&lang, "lang", "", "Label language (fr, en), defaults to APP_LANG")
	cmd.Flags().StringVar(&textfile, "textfile", "", "Also write the anomaly gauges to this node-exporter textfile")
	return cmd
}

func newTotauxCmd(app *App) *cobra.Command {
	var (
		f                 services.FermageFilter
		annee, exploitant int
		commune           int
		sctl              bool
	)
	cmd := &cobra.Command{
		Use:   "totaux",
		Short: "Sum surfaces, income and rent over subdivisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("annee") {
				f.Annee = &annee
			}
			if flags.Changed("exploitant") {
				f.IDExploitant = &exploitant
			}
			if flags.Changed("commune") {
				f.IDCommune = &commune
			}
			if flags.Changed("sctl") {
				f.SCTL = &sctl
			}
			t, err := app.svc.Cadastre.Totaux(cmd.Context(), f)
			if err != nil {
				return err
			}
			if t.SansValeurPoint {
				app.log.Warn("no point values for the requested year, rent reported as zero", "annee", f.Annee)
			}
			return app.print(t)
		},
	}
	cmd.Flags().IntVar(&annee, "annee", 0, "Year of the point values")
	cmd.Flags().IntVar(&exploitant, "exploitant", 0, "Tenant id")
	cmd.Flags().IntVar(&commune, "commune", 0, "Commune id")
	cmd.Flags().BoolVar(&sctl, "sctl", false, "Only SCTL parcels (--sctl=false for GFA parcels)")
	cmd.Flags().BoolVar(&f.Supplement, "supplement", false, "Apply the duration supplement")
	return cmd
}

func newPartsCmd(app *App) *cobra.Command {
	var personne int
	cmd := &cobra.Command{
		Use:   "parts",
		Short: "Count live shares, globally or for one shareholder",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("personne") {
				p, err := app.svc.Personnes.GetWithParts(cmd.Context(), personne)
				if err != nil {
					return err
				}
				if p == nil {
					return fmt.Errorf("personne %d not found", personne)
				}
				return app.print(p)
			}
			t, err := app.svc.Parts.Totaux(cmd.Context())
			if err != nil {
				return err
			}
			return app.print(t)
		},
	}
	cmd.Flags().IntVar(&personne, "personne", 0, "Shareholder id")
	return cmd
}

func newFermageCmd(app *App) *cobra.Command {
	var (
		req             services.CalculRequest
		points, surface string
		parcelle        int
	)
	cmd := &cobra.Command{
		Use:   "fermage",
		Short: "Preview the rent of one unit, or of a parcel with --parcelle",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("parcelle") {
				d, err := app.svc.Cadastre.Details(ctx, parcelle, &req.Annee, req.Supplement)
				if err != nil {
					return err
				}
				if d == nil {
					return fmt.Errorf("parcelle %d not found", parcelle)
				}
				return app.print(d)
			}
			var err error
			if req.Points, err = decimal.NewFromString(points); err != nil {
				return fmt.Errorf("invalid --points: %w", err)
			}
			if req.Surface, err = decimal.NewFromString(surface); err != nil {
				return fmt.Errorf("invalid --surface: %w", err)
			}
			res, err := app.svc.Cadastre.Calculate(ctx, req)
			if err != nil {
				return err
			}
			return app.print(res)
		},
	}
	cmd.Flags().StringVar(&points, "points", "0", "Rent points")
	cmd.Flags().StringVar(&surface, "surface", "0", "Surface in hectares")
	cmd.Flags().BoolVar(&req.SCTL, "sctl", false, "Use the SCTL point value")
	cmd.Flags().IntVar(&req.Annee, "annee", 0, "Year of the point values (required)")
	cmd.Flags().BoolVar(&req.Supplement, "supplement", false, "Apply the duration supplement")
	cmd.Flags().IntVar(&parcelle, "parcelle", 0, "Compute the rent of this parcel's first subdivision instead")
	_ = cmd.MarkFlagRequired("annee")
	return cmd
}
