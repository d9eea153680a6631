package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/inference"

	"github.com/spf13/cobra"
)

var (
	noSave     bool
	confidence float64
	plantType  string
	lat, lng   string
)

var classifyCmd = &cobra.Command{
	Use:   "classify [image]",
	Short: "Classify a leaf photo and save the result to your logbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		p, err := inference.NewClient(modelURL, nil).Predict(cmd.Context(), filepath.Base(path), f)
		if err != nil {
			return err
		}
		printPrediction(cmd.OutOrStdout(), p)
		if noSave {
			return nil
		}

		token, err := loadToken(tokenFile)
		if err != nil {
			return err
		}
		rec, err := newAPIClient(apiURL, authURL, token).save(cmd.Context(), saveRequest{
			ImagePath:  path,
			Disease:    p.Label,
			Confidence: confidence,
			PlantType:  plantType,
			Lat:        lat,
			Lng:        lng,
		})
		if err != nil {
			return fmt.Errorf("failed to save to logbook: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved to logbook as %s\n", rec.ID)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List your saved predictions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := loadToken(tokenFile)
		if err != nil {
			return err
		}
		records, err := newAPIClient(apiURL, authURL, token).history(cmd.Context())
		if err != nil {
			return err
		}
		printHistory(cmd.OutOrStdout(), records)
		return nil
	},
}

func init() {
	classifyCmd.Flags().BoolVar(&noSave, "no-save", false, "only classify, do not save")
	classifyCmd.Flags().Float64Var(&confidence, "confidence", 0, "confidence score to record")
	classifyCmd.Flags().StringVar(&plantType, "plant", "", "plant type")
	classifyCmd.Flags().StringVar(&lat, "lat", "", "latitude of the photo")
	classifyCmd.Flags().StringVar(&lng, "lng", "", "longitude of the photo")
	rootCmd.AddCommand(classifyCmd, historyCmd)
}

func printPrediction(w io.Writer, p *inference.Prediction) {
	fmt.Fprintf(w, "Result: %s\n", p.Label)
	c := p.Cure
	if c.Text != "" {
		fmt.Fprintf(w, "\n%s\n", c.Text)
		return
	}
	for _, s := range [][2]string{{"Symptoms", c.Symptoms}, {"Cure & Treatment", c.Cure}, {"Prevention", c.Prevention}} {
		if s[1] != "" {
			fmt.Fprintf(w, "\n%s:\n  %s\n", s[0], s[1])
		}
	}
}

func printHistory(w io.Writer, records []record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No predictions saved yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDISEASE\tPLANT\tCONFIDENCE\tIMAGE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"), r.DiseaseDetected, r.PlantType, r.ConfidenceScore, r.ImageURL)
	}
	tw.Flush()
}
