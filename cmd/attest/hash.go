package main

import (
	"github.com/healthcare-ms/go-attest-sdk/claim"
	"github.com/healthcare-ms/go-attest-sdk/config"
	"github.com/healthcare-ms/go-attest-sdk/signer"
	"github.com/healthcare-ms/go-attest-sdk/typeddata"
	"github.com/spf13/cobra"
)

type hashOutput struct {
	Schema string       `json:"schema"`
	Domain string       `json:"domain"`
	Claim  *claim.Claim `json:"claim"`
	typeddata.Hashes
}

// newHashCmd builds a claim and prints its EIP-712 hashes without publishing
// or signing.
func newHashCmd(a *app) *cobra.Command {
	var schema, patient, hospital, cid string

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Compute the EIP-712 hashes of a claim offline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inputs := claim.Inputs{}
			for key, val := range map[string]string{
				claim.InputPatient:   patient,
				claim.InputHospital:  hospital,
				claim.InputContentID: cid,
			} {
				if val != "" {
					inputs[key] = val
				}
			}

			c, err := claim.NewBuilder(nil).Build(schema, inputs)
			if err != nil {
				return err
			}
			domain, err := a.cfg.Domain()
			if err != nil {
				return err
			}

			sgn := signer.New(domain, nil, nil, signer.WithLogger(a.logger))
			hashes, err := sgn.Hash(c)
			if err != nil {
				return err
			}
			return a.printJSON(hashOutput{
				Schema: c.Schema(),
				Domain: domain.String(),
				Claim:  c,
				Hashes: hashes,
			})
		},
	}
	cmd.Flags().StringVar(&schema, "schema", typeddata.PatientDataUpdate, "Claim schema")
	cmd.Flags().StringVar(&patient, "patient", "", "Patient address")
	cmd.Flags().StringVar(&hospital, "hospital", "", "Hospital address")
	cmd.Flags().StringVar(&cid, "cid", "", "Content identifier")
	return cmd
}

func newNetworksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List chain presets",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return a.printJSON(config.Networks())
		},
	}
}
