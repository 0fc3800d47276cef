package natsdomain

// subjects for nats

var KvBuckets = [...]string{"watermarks", "heartbeats", "allocations"}

// .js. - jetstream
var SubjectsJetStream = [...]string{"payments.js.events"}

// .core. - nats core
var Subjects = [...]string{"networks.core.allocate", "networks.core.release", "networks.core.get_rates", "networks.core.contribute_input", "networks.core.ping"}

type SubjType uint8
type SubjJsType uint8
type BucketType uint8

// nats core subjects
const (
	SubjAllocate SubjType = iota
	SubjRelease
	SubjGetRates
	SubjContributeInput
	SubjPing
)

// wire error messages the engine maps back to typed errors
const (
	ErrMsgPoolExhausted      = "pool exhausted"
	ErrMsgNetworkUnavailable = "network unavailable"
	ErrMsgRateUnavailable    = "rate unavailable"
)

// nats jetstream subjects
const (
	SubjJsPaymentEvents SubjJsType = iota
)

// kv buckets
const (
	BucketWatermarks BucketType = iota
	BucketHeartbeats
	BucketAllocations
)

func (b BucketType) String() string {
	return KvBuckets[b]
}

func (s SubjType) String() string {
	return Subjects[s]
}

func (s SubjJsType) String() string {
	return SubjectsJetStream[s]
}
