package constant

type AssetKind string

const (
	AssetKindVideo AssetKind = "video"
	AssetKindImage AssetKind = "image"
)

func (k AssetKind) String() string {
	return string(k)
}

func (k AssetKind) Valid() bool {
	return k == AssetKindVideo || k == AssetKindImage
}

type SortType string

const (
	SortTypeAsc  SortType = "asc"
	SortTypeDesc SortType = "desc"
)

// MaxVideoFileSize caps the source file accepted by publish (100 MiB).
const MaxVideoFileSize int64 = 100 * 1024 * 1024

// MaxPublishBodySize caps a whole publish request: the source file plus room
// for the thumbnail and form fields.
const MaxPublishBodySize = MaxVideoFileSize + 10*1024*1024

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Sortable video fields exposed to clients, keyed by their API name.
var VideoSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"views":     "views",
	"duration":  "duration",
	"title":     "title",
}

const (
	CleanupExchange      = "asset_cleanup_exchange"
	CleanupQueue         = "asset_cleanup_queue"
	CleanupRoutingKey    = "asset.cleanup.request"
	CleanupDLX           = "asset_cleanup_exchange_dlx"
	CleanupDLQ           = "asset_cleanup_queue_dlq"
	CleanupDLQRoutingKey = "dlq.asset.cleanup.request"
)

type CleanupReason string

const (
	CleanupReasonPublishRollback CleanupReason = "publish_rollback"
	CleanupReasonUpdateRollback  CleanupReason = "update_rollback"
	CleanupReasonReplacedThumb   CleanupReason = "replaced_thumbnail"
	CleanupReasonDeleteRace      CleanupReason = "delete_race"
)

// MaxDeleteAttempts bounds how often Delete chases media written by a
// concurrent update.
const MaxDeleteAttempts = 3

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
