package tier

// bucketCeil lists the inclusive upper bound of every score bucket in
// ascending order.  Bucket i holds scores in (bucketCeil[i-1], bucketCeil[i]].
var bucketCeil = []Adj{
	NativeAdj,
	SystemAdj,
	PinnedProcAdj,
	PinnedServiceAdj,
	ForegroundAdj,
	PerceptibleRecentAdj,
	VisibleAdj,
	PerceptibleAdj,
	PerceptibleMediumAdj,
	PerceptibleLowAdj,
	BackupAdj,
	HeavyAdj,
	ServiceAdj,
	HomeAdj,
	PreviousAdj,
	ServiceBAdj,
	CachedMaxAdj,
	UnknownAdj,
}

// BucketCount is the number of score buckets, best first.
func BucketCount() int {
	return len(bucketCeil)
}

// BucketOf maps a score onto its bucket index.  Index 0 is the most
// important bucket; scores outside the valid range map to -1.
func BucketOf(a Adj) int {
	if !a.Valid() {
		return -1
	}
	for i, ceil := range bucketCeil {
		if a <= ceil {
			return i
		}
	}
	return -1
}
