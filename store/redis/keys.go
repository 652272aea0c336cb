package redis

// Key prefixes for primary entity storage.
const (
	prefixSub = "dispatch:sub:"
)

// Key prefixes for sorted set indexes.
const (
	zSubTenant = "dispatch:z:sub:tenant:" // + tenant ID, scored by creation time
)

// entityKey returns the primary key for an entity.
func entityKey(prefix, id string) string {
	return prefix + id
}

// tenantIndexKey returns the creation-ordered index key for a tenant.
func tenantIndexKey(tenantID string) string {
	return zSubTenant + tenantID
}
