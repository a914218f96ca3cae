package constants

//TopicRecomputeUserStats Name of the topic triggering recomputation.
const TopicRecomputeUserStats = "recompute-user-stats"

//TopicUserStatsRecomputed Name of the topic receiving run summaries.
const TopicUserStatsRecomputed = "user-stats-recomputed"

//BackfillLockName Name of the distributed lock guarding recomputation.
const BackfillLockName = "user-stats-backfill"

//FirestoreMaxBatchWrites Hard limit of writes in one Firestore batch.
const FirestoreMaxBatchWrites = 500

// Fields of user documents.
const (
	FieldUID              = "uid"
	FieldReviewCount      = "reviewCount"
	FieldPhotoReviewCount = "photoReviewCount"
	FieldStatesVisited    = "statesVisited"
	FieldReviewsByState   = "reviewsByState"
	FieldFirstReviews     = "firstReviews"
)
