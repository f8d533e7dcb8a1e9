// Package retrieval implements similarity search over the tenant-partitioned
// knowledge corpus of past brand cases. The Engine asks a Corpus for the
// nearest candidates, orders them by ascending distance and drops those beyond
// the distance threshold. Tenant-facing callers use QueryTenant; QueryGlobal
// searches across tenants and is reserved for maintenance.
package retrieval
