// Package store persists accounts, provider links, roles and sessions.
//
// Every entity repository embeds the generic Repository, which supplies
// create, lookup-by-id, filtered find and delete; entity types only add
// their own queries. Repositories pick up a transaction stored in the
// context with WithTx, so several writes can share one commit.
package store
