package submission

import (
	"context"

	"github.com/healthcare-ms/go-attest-sdk/signer"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds SubmitBatch when the caller passes zero.
const DefaultConcurrency = 4

// Result is the outcome of one batch request.
type Result struct {
	Index       int
	Request     Request
	Attestation *signer.Attestation
	Err         error
}

// SubmitBatch runs independent submissions with at most concurrency in flight.
// A failed submission never affects the others; results keep request order.
func (s *Service) SubmitBatch(ctx context.Context, reqs []Request, concurrency int) []Result {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]Result, len(reqs))
	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			att, err := s.Submit(ctx, req)
			results[i] = Result{Index: i, Request: req, Attestation: att, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
