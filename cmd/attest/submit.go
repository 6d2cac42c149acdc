package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/healthcare-ms/go-attest-sdk/signer"
	"github.com/healthcare-ms/go-attest-sdk/submission"
	"github.com/spf13/cobra"
)

func newPatientCmd(a *app) *cobra.Command {
	var form submission.PatientDataForm

	cmd := &cobra.Command{
		Use:   "patient",
		Short: "Publish a patient record update and sign a PatientDataUpdate attestation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			att, err := svc.SubmitPatientData(cmd.Context(), form)
			if err != nil {
				return err
			}
			return a.printJSON(att)
		},
	}
	cmd.Flags().StringVar(&form.PatientAddress, "patient-address", "", "Patient account address (required)")
	cmd.Flags().StringVar(&form.PatientName, "name", "", "Patient name")
	cmd.Flags().StringVar(&form.PatientAge, "age", "", "Patient age")
	_ = cmd.MarkFlagRequired("patient-address")
	return cmd
}

func newFeedbackCmd(a *app) *cobra.Command {
	var form submission.FeedbackForm

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Publish hospital feedback and sign a FeedbackSubmission attestation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			att, err := svc.SubmitFeedback(cmd.Context(), form)
			if err != nil {
				return err
			}
			return a.printJSON(att)
		},
	}
	cmd.Flags().StringVar(&form.HospitalAddress, "hospital-address", "", "Hospital account address (required)")
	cmd.Flags().StringVar(&form.PatientAddress, "patient-address", "", "Patient account address (required)")
	cmd.Flags().StringVar(&form.FeedbackText, "text", "", "Feedback text")
	_ = cmd.MarkFlagRequired("hospital-address")
	_ = cmd.MarkFlagRequired("patient-address")
	return cmd
}

type batchResult struct {
	Index       int                 `json:"index"`
	Kind        string              `json:"kind"`
	Attestation *signer.Attestation `json:"attestation,omitempty"`
	Error       string              `json:"error,omitempty"`
}

func newBatchCmd(a *app) *cobra.Command {
	var (
		file        string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Submit a JSON array of patient and feedback requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read batch file: %w", err)
			}
			var reqs []submission.Request
			if err := json.Unmarshal(data, &reqs); err != nil {
				return fmt.Errorf("failed to parse batch file: %w", err)
			}

			svc, closeFn, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			results := svc.SubmitBatch(cmd.Context(), reqs, concurrency)

			out := make([]batchResult, len(results))
			failed := 0
			for i, res := range results {
				out[i] = batchResult{Index: res.Index, Kind: string(res.Request.Kind), Attestation: res.Attestation}
				if res.Err != nil {
					out[i].Error = res.Err.Error()
					failed++
				}
			}
			if err := a.printJSON(out); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d submissions failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to a JSON array of requests (required)")
	cmd.Flags().IntVar(&concurrency, "concurrency", submission.DefaultConcurrency, "Maximum submissions in flight")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
