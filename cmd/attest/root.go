package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/healthcare-ms/go-attest-sdk/claim"
	"github.com/healthcare-ms/go-attest-sdk/config"
	"github.com/healthcare-ms/go-attest-sdk/signer"
	"github.com/healthcare-ms/go-attest-sdk/submission"
	"github.com/spf13/cobra"
)

type app struct {
	cfg     config.Config
	logger  *slog.Logger
	out     io.Writer
	envFile string
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:           "attest",
		Short:         "Healthcare attestation CLI",
		Long:          "Publishes patient records and feedback to IPFS and signs EIP-712 attestations committing to them.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var (
				cfg config.Config
				err error
			)
			if a.envFile != "" {
				cfg, err = config.Load(a.envFile)
			} else {
				cfg, err = config.Load()
			}
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cfg.Logger(errOut)
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", "dotenv file to load (default .env if present)")

	rootCmd.AddCommand(
		newPatientCmd(a),
		newFeedbackCmd(a),
		newBatchCmd(a),
		newHashCmd(a),
		newNetworksCmd(a),
	)
	return rootCmd
}

func (a *app) signer(ctx context.Context) (*signer.Signer, func(), error) {
	domain, err := a.cfg.Domain()
	if err != nil {
		return nil, nil, err
	}
	holder, closeFn, err := a.cfg.KeyHolder(ctx)
	if err != nil {
		return nil, nil, err
	}
	return signer.New(domain, nil, holder, signer.WithLogger(a.logger)), closeFn, nil
}

// service assembles the submission pipeline from configuration.
func (a *app) service(ctx context.Context) (*submission.Service, func(), error) {
	pub, err := a.cfg.Publisher(a.logger)
	if err != nil {
		return nil, nil, err
	}
	sgn, closeFn, err := a.signer(ctx)
	if err != nil {
		return nil, nil, err
	}
	return submission.NewService(pub, claim.NewBuilder(nil), sgn, submission.WithLogger(a.logger)), closeFn, nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
