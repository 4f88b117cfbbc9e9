// Package warmup fills the store ahead of demand by obtaining many
// (semantic key, args) requests in parallel.
//
// Example usage:
//
//	warmer := warmup.NewWarmer(userObtainer, warmup.DefaultConfig(), logger)
//	results, err := warmer.Warm(ctx, []warmup.Request{
//		{Key: "orders", Args: obtainable.Args{"id": 1, "status": "open"}},
//		{Key: "orders", Args: obtainable.Args{"id": 2, "status": "open"}},
//	})
//
// The warmer:
//   - Runs at most MaxConcurrency obtains at a time
//   - Applies a per-request timeout
//   - Returns results in request order, failures included (partial data)
//   - Optionally cancels outstanding requests after the first failure
package warmup
