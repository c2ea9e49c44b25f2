package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docuchat/medreview/internal/report"
)

var reportTopic string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a mini-review, claim audit and PDF for a topic",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportTopic, "topic", "", "report topic")
	_ = reportCmd.MarkFlagRequired("topic")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ret, _, err := a.openRetriever()
	if err != nil {
		return err
	}
	gen := report.NewGenerator(ret, a.generator(), a.cfg.Exports.Dir, a.logger)

	rep, err := gen.Generate(context.Background(), reportTopic)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	cmd.Println("Saved:")
	cmd.Println("-", rep.MarkdownPath)
	cmd.Println("-", rep.AuditPath)
	cmd.Println("-", rep.PDFPath)
	return nil
}
