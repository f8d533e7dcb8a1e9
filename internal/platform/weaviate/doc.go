// Package weaviate implements retrieval.Corpus on a Weaviate class of brand
// cases, searched with nearText and filtered by tenant.
package weaviate
