// Package costing is the inventory cost-layer engine.
//
// Completed inbound movement lines with remaining quantity form cost layers.
// Outgoing and internal movements draw their cost from those layers either
// through an explicit lot (LotResolver) or through the location/expiry/arrival
// ordered walk (FIFOMatcher). CostSuggester wraps both with the last-inbound and
// standard-cost fallbacks, and Apportioner splits one pooled cost over several
// co-produced output lines so the allocations always sum to the pool.
//
// Everything in this package is read-only over the ledger. Decrementing
// remaining quantities is a separate commit step owned by LayerCommitter.
package costing
