package arena

// Metrics returns a snapshot of arena statistics, grouping the individual
// query methods into one value for logging or monitoring call sites.
func (a *Arena) Metrics() Metrics {
	return Metrics{
		TotalBytes:       a.TotalBytes(),
		NumBlocks:        a.NumBlocks(),
		SizeEstimate:     a.SizeEstimate(),
		SizeEstimateHigh: a.SizeEstimateHigh(),
	}
}

// Metrics is a point-in-time snapshot of an Arena's bookkeeping counters.
type Metrics struct {
	TotalBytes       int // payload capacity held across every block in the chain
	NumBlocks        int // number of blocks currently in the chain
	SizeEstimate     int // bytes needed to pack all finalized allocations into one block
	SizeEstimateHigh int // high-water mark of SizeEstimate across this arena's lifetime
}
